package leadform

import "context"

// KeyEvent is a key press delivered by the front end. Accelerator is set
// when the platform modifier (Ctrl or Cmd) is held.
type KeyEvent struct {
	Accelerator bool
	Key         string
}

// HandleKey runs the form shortcuts: accelerator+Enter submits and
// accelerator+r clears the form. It reports whether the key was consumed;
// err is the Submit result for accelerator+Enter, or ErrSubmitInProgress
// when accelerator+r arrives during a submission.
func (c *Controller) HandleKey(ctx context.Context, ev KeyEvent) (handled bool, err error) {
	if !ev.Accelerator {
		return false, nil
	}
	switch ev.Key {
	case "Enter":
		return true, c.Submit(ctx)
	case "r":
		if !c.Clear() {
			return true, ErrSubmitInProgress
		}
		return true, nil
	}
	return false, nil
}
