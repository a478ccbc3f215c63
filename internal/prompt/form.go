package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"leadcapture/internal/leadform"
	apperrors "leadcapture/pkg/errors"
)

const (
	formTitle    = "Get In Touch"
	formSubtitle = "Fill out the form below and we'll get back to you within 24 hours"
	thankYou     = "Thank You! Your information has been submitted successfully. We'll get back to you soon!"
	busyNotice   = "! A submission is already in progress."
)

type fieldPrompt struct {
	label     string
	help      string
	multiline bool
}

var fieldPrompts = map[leadform.Field]fieldPrompt{
	leadform.FieldName:    {label: "Full Name *", help: "Enter your full name"},
	leadform.FieldEmail:   {label: "Email Address *", help: "Enter your email address"},
	leadform.FieldPhone:   {label: "Phone Number *", help: "Enter your phone number"},
	leadform.FieldCompany: {label: "Company Name *", help: "Enter your company name"},
	leadform.FieldMessage: {label: "Message *", help: "Tell us about your project or requirements...", multiline: true},
}

// Run drives the lead form on d until the user declines to submit another
// lead or aborts.
func Run(ctx context.Context, d Driver, form *leadform.Controller) error {
	if err := d.Info(ctx, formTitle+"\n"+formSubtitle); err != nil {
		return err
	}
	for {
		if err := collect(ctx, d, form); err != nil {
			return err
		}
		submitted, err := submit(ctx, d, form)
		if err != nil {
			return err
		}
		if !submitted {
			continue
		}

		again, err := d.Confirm(ctx, ConfirmConfig{Message: "Submit Another Lead?"})
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
		form.Reset()
	}
}

// collect asks for every field, offering the current value as default.
func collect(ctx context.Context, d Driver, form *leadform.Controller) error {
	for _, f := range leadform.Fields {
		p := fieldPrompts[f]
		current := leadform.Value(form.Snapshot().Fields, f)

		value, err := d.Input(ctx, InputConfig{
			Message:   p.label,
			Default:   current,
			Help:      p.help,
			Multiline: p.multiline,
			Validator: fieldValidator(f),
		})
		if err != nil {
			return err
		}
		if err := form.SetField(f, value); err != nil {
			return err
		}
		if err := d.Info(ctx, progressBar(form.Snapshot().Progress)); err != nil {
			return err
		}
	}
	return nil
}

// submit asks for confirmation and sends the lead, offering a retry with
// the preserved input when delivery fails. It reports false when the
// fields need to be collected again.
func submit(ctx context.Context, d Driver, form *leadform.Controller) (bool, error) {
	question := "Submit Lead?"
	for {
		ok, err := d.Confirm(ctx, ConfirmConfig{Message: question, Default: true})
		if err != nil {
			return false, err
		}
		if !ok {
			return false, offerClear(ctx, d, form)
		}

		if err := d.Info(ctx, "Submitting..."); err != nil {
			return false, err
		}
		_, err = form.HandleKey(ctx, leadform.KeyEvent{Accelerator: true, Key: "Enter"})
		switch {
		case err == nil:
			return true, d.Info(ctx, thankYou)
		case apperrors.IsValidation(err):
			return false, d.Info(ctx, describeErrors(form.Snapshot().Errors))
		case apperrors.IsBusy(err):
			return false, d.Info(ctx, busyNotice)
		case ctx.Err() != nil:
			return false, ctx.Err()
		}

		if err := d.Info(ctx, "! "+form.Snapshot().SubmitError); err != nil {
			return false, err
		}
		question = "Retry submission?"
	}
}

// offerClear runs the clear shortcut when the user asks to start over.
func offerClear(ctx context.Context, d Driver, form *leadform.Controller) error {
	ok, err := d.Confirm(ctx, ConfirmConfig{Message: "Clear form?"})
	if err != nil || !ok {
		return err
	}
	if _, err := form.HandleKey(ctx, leadform.KeyEvent{Accelerator: true, Key: "r"}); err != nil {
		if apperrors.IsBusy(err) {
			return d.Info(ctx, busyNotice)
		}
		return err
	}
	return nil
}

func fieldValidator(f leadform.Field) func(string) error {
	return func(value string) error {
		if msg := leadform.Validate(f, value); msg != "" {
			return errors.New(msg)
		}
		return nil
	}
}

func describeErrors(errs leadform.FieldErrors) string {
	var b strings.Builder
	for _, f := range leadform.Fields {
		if msg := errs[f]; msg != "" {
			fmt.Fprintf(&b, "! %s\n", msg)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func progressBar(percent int) string {
	const width = 20
	filled := percent * width / 100
	return fmt.Sprintf("[%s%s] %d%%", strings.Repeat("#", filled), strings.Repeat("-", width-filled), percent)
}
