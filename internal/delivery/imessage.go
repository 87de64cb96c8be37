package delivery

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	pkgerrors "github.com/obsops/fleetbrief/internal/errors"
)

const defaultSendTimeout = 30 * time.Second

// sendScript drives Messages.app over AppleScript. The recipient and body are
// injected as quoted AppleScript string literals.
const sendScript = `tell application "Messages"
	set targetService to 1st service whose service type = iMessage
	set targetBuddy to buddy %s of targetService
	send %s to targetBuddy
end tell`

// IMessageChannel sends digests through the local Messages application via
// osascript. Only available where osascript exists; anywhere else every send
// fails and the dispatcher's file fallback carries the report.
type IMessageChannel struct {
	timeout time.Duration

	// runScript is swapped out in tests.
	runScript func(ctx context.Context, script string) ([]byte, error)
}

func NewIMessageChannel(timeout time.Duration) *IMessageChannel {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &IMessageChannel{
		timeout:   timeout,
		runScript: runOsascript,
	}
}

func (c *IMessageChannel) Name() string { return "imessage" }

// Deliver sends the digest to the recipient. A non-zero osascript exit is a
// delivery failure, never a process failure.
func (c *IMessageChannel) Deliver(ctx context.Context, d Delivery) error {
	if strings.TrimSpace(d.Recipient) == "" {
		return pkgerrors.WrapDeliveryError("send_imessage", c.Name(), fmt.Errorf("recipient is empty"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	script := fmt.Sprintf(sendScript, appleScriptString(d.Recipient), appleScriptString(d.Body))

	output, err := c.runScript(ctx, script)
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return pkgerrors.WrapDeliveryError("send_imessage", c.Name(), err)
	}

	log.Debug().Str("recipient", d.Recipient).Msg("iMessage sent")
	return nil
}

func runOsascript(ctx context.Context, script string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	return cmd.CombinedOutput()
}

// appleScriptString quotes s as an AppleScript string literal. Backslashes
// and double quotes are the only characters AppleScript strings escape.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
