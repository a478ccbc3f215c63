package leadform_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"leadcapture/internal/config"
	"leadcapture/internal/crm"
	"leadcapture/internal/domain"
	"leadcapture/internal/leadform"
	apperrors "leadcapture/pkg/errors"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	leads []domain.Lead
	err   error
	block chan struct{}
}

func (f *fakeSubmitter) SubmitLead(ctx context.Context, lead domain.Lead) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, lead)
	return f.err
}

func (f *fakeSubmitter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.leads)
}

var validLead = domain.Lead{
	Name:    "Ada Lovelace",
	Email:   "ada@example.com",
	Phone:   "+15551234567",
	Company: "Analytical Engines",
	Message: "We would like a product demo.",
}

func fill(t *testing.T, c *leadform.Controller, lead domain.Lead) {
	t.Helper()
	for _, f := range leadform.Fields {
		if err := c.SetField(f, leadform.Value(lead, f)); err != nil {
			t.Fatalf("SetField(%s) error = %v", f, err)
		}
	}
}

func TestSetFieldKeepsErrorsInLockstep(t *testing.T) {
	c := leadform.New(&fakeSubmitter{})

	if err := c.SetField(leadform.FieldName, "A"); err != nil {
		t.Fatal(err)
	}
	snap := c.Snapshot()
	if snap.Errors[leadform.FieldName] != leadform.ErrNameTooShort {
		t.Fatalf("name error = %q, want %q", snap.Errors[leadform.FieldName], leadform.ErrNameTooShort)
	}
	if snap.Progress != 20 {
		t.Fatalf("Progress = %d, want 20", snap.Progress)
	}

	c.SetField(leadform.FieldName, "Ad")
	snap = c.Snapshot()
	if _, ok := snap.Errors[leadform.FieldName]; ok {
		t.Fatalf("stale name error after valid edit: %v", snap.Errors)
	}
	if snap.Fields.Name != "Ad" {
		t.Fatalf("Name = %q", snap.Fields.Name)
	}
}

func TestSetFieldUnknown(t *testing.T) {
	c := leadform.New(&fakeSubmitter{})
	if err := c.SetField("website", "x"); err == nil {
		t.Fatal("SetField(unknown) succeeded")
	}
}

func TestProgressThreeOfFive(t *testing.T) {
	c := leadform.New(&fakeSubmitter{})
	c.SetField(leadform.FieldName, "Ada")
	c.SetField(leadform.FieldEmail, "ada@example.com")
	c.SetField(leadform.FieldCompany, "   ")
	c.SetField(leadform.FieldMessage, "hello")

	if got := c.Snapshot().Progress; got != 60 {
		t.Fatalf("Progress = %d, want 60", got)
	}
}

func TestSubmitInvalidMakesNoRequest(t *testing.T) {
	sub := &fakeSubmitter{}
	var focused []leadform.Field
	c := leadform.New(sub, leadform.WithFocus(func(f leadform.Field) {
		focused = append(focused, f)
	}))

	lead := validLead
	lead.Phone = "abc"
	lead.Message = "short"
	fill(t, c, lead)

	err := c.Submit(context.Background())
	if !errors.Is(err, leadform.ErrInvalidFields) || !apperrors.IsValidation(err) {
		t.Fatalf("Submit() error = %v, want ErrInvalidFields", err)
	}
	if sub.calls() != 0 {
		t.Fatalf("submitter called %d times, want 0", sub.calls())
	}

	snap := c.Snapshot()
	if snap.State != leadform.StateIdle {
		t.Fatalf("State = %v, want idle", snap.State)
	}
	wantErrs := leadform.FieldErrors{
		leadform.FieldPhone:   leadform.ErrPhoneInvalid,
		leadform.FieldMessage: leadform.ErrMessageTooShort,
	}
	if diff := cmp.Diff(wantErrs, snap.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]leadform.Field{leadform.FieldPhone}, focused); diff != "" {
		t.Fatalf("focus mismatch (-want +got):\n%s", diff)
	}
	if snap.Focused != leadform.FieldPhone {
		t.Fatalf("Focused = %q, want phone", snap.Focused)
	}
	if snap.Fields != lead {
		t.Fatal("invalid submit changed the field values")
	}
}

func TestSubmitSuccessClearsForm(t *testing.T) {
	sub := &fakeSubmitter{}
	c := leadform.New(sub)
	fill(t, c, validLead)

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if diff := cmp.Diff([]domain.Lead{validLead}, sub.leads); diff != "" {
		t.Fatalf("submitted leads mismatch (-want +got):\n%s", diff)
	}

	want := leadform.Snapshot{
		Errors: leadform.FieldErrors{},
		State:  leadform.StateSubmitted,
	}
	if diff := cmp.Diff(want, c.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitFailurePreservesInput(t *testing.T) {
	sub := &fakeSubmitter{err: apperrors.New(apperrors.ErrCodeUpstream, "status 500")}
	c := leadform.New(sub)
	fill(t, c, validLead)

	err := c.Submit(context.Background())
	if !apperrors.IsUpstream(err) {
		t.Fatalf("Submit() error = %v, want upstream error", err)
	}

	snap := c.Snapshot()
	if snap.State != leadform.StateIdle {
		t.Fatalf("State = %v, want idle", snap.State)
	}
	if snap.SubmitError != leadform.SubmitFailedMessage {
		t.Fatalf("SubmitError = %q", snap.SubmitError)
	}
	if snap.Fields != validLead {
		t.Fatalf("fields were not preserved: %+v", snap.Fields)
	}
	if snap.Progress != 100 {
		t.Fatalf("Progress = %d, want 100", snap.Progress)
	}

	// Retry with the preserved input succeeds and clears the submit error.
	sub.err = nil
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("retry Submit() error = %v", err)
	}
	if sub.calls() != 2 {
		t.Fatalf("submitter calls = %d, want 2", sub.calls())
	}
	if snap := c.Snapshot(); snap.SubmitError != "" || snap.State != leadform.StateSubmitted {
		t.Fatalf("after retry: state=%v submitErr=%q", snap.State, snap.SubmitError)
	}
}

func TestSubmitWhileSubmittingIsRefused(t *testing.T) {
	sub := &fakeSubmitter{block: make(chan struct{})}
	c := leadform.New(sub)
	fill(t, c, validLead)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()

	waitForState(t, c, leadform.StateSubmitting)
	if err := c.Submit(context.Background()); !errors.Is(err, leadform.ErrSubmitInProgress) {
		t.Fatalf("second Submit() error = %v, want ErrSubmitInProgress", err)
	}

	close(sub.block)
	if err := <-done; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if sub.calls() != 1 {
		t.Fatalf("submitter calls = %d, want 1", sub.calls())
	}
}

func waitForState(t *testing.T, c *leadform.Controller, want leadform.State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for c.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state = %v, want %v", c.State(), want)
		}
		runtime.Gosched()
	}
}

func TestResetAndClearWaitForInFlightSubmit(t *testing.T) {
	sub := &fakeSubmitter{block: make(chan struct{})}
	c := leadform.New(sub)
	fill(t, c, validLead)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Submit(ctx) }()
	waitForState(t, c, leadform.StateSubmitting)

	c.Reset()
	if c.Clear() {
		t.Fatal("Clear() = true during submission")
	}
	if handled, err := c.HandleKey(ctx, leadform.KeyEvent{Accelerator: true, Key: "r"}); !handled || !errors.Is(err, leadform.ErrSubmitInProgress) {
		t.Fatalf("accel+r during submission: handled=%v err=%v", handled, err)
	}
	snap := c.Snapshot()
	if snap.State != leadform.StateSubmitting || snap.Fields != validLead {
		t.Fatalf("form changed during submission: %+v", snap)
	}

	fill(t, c, validLead)
	if err := c.Submit(ctx); !errors.Is(err, leadform.ErrSubmitInProgress) {
		t.Fatalf("Submit() after Reset error = %v, want ErrSubmitInProgress", err)
	}

	close(sub.block)
	if err := <-done; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if sub.calls() != 1 {
		t.Fatalf("submitter calls = %d, want 1", sub.calls())
	}
	if got := c.State(); got != leadform.StateSubmitted {
		t.Fatalf("state = %v, want submitted", got)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	c := leadform.New(&fakeSubmitter{})
	fill(t, c, validLead)
	c.Submit(context.Background())

	c.Reset()
	once := c.Snapshot()
	c.Reset()
	twice := c.Snapshot()

	want := leadform.Snapshot{Errors: leadform.FieldErrors{}, State: leadform.StateIdle}
	if diff := cmp.Diff(want, once); diff != "" {
		t.Fatalf("after one Reset (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("second Reset changed state (-once +twice):\n%s", diff)
	}
}

func TestHandleKey(t *testing.T) {
	sub := &fakeSubmitter{}
	c := leadform.New(sub)
	ctx := context.Background()

	c.SetField(leadform.FieldName, "A")
	handled, err := c.HandleKey(ctx, leadform.KeyEvent{Accelerator: true, Key: "r"})
	if !handled || err != nil {
		t.Fatalf("accel+r: handled=%v err=%v", handled, err)
	}
	snap := c.Snapshot()
	if snap.Fields != (domain.Lead{}) || len(snap.Errors) != 0 || snap.Progress != 0 {
		t.Fatalf("accel+r did not clear the form: %+v", snap)
	}

	if handled, _ := c.HandleKey(ctx, leadform.KeyEvent{Key: "Enter"}); handled {
		t.Fatal("Enter without accelerator was handled")
	}
	if handled, _ := c.HandleKey(ctx, leadform.KeyEvent{Accelerator: true, Key: "R"}); handled {
		t.Fatal("accel+R was handled")
	}

	fill(t, c, validLead)
	handled, err = c.HandleKey(ctx, leadform.KeyEvent{Accelerator: true, Key: "Enter"})
	if !handled || err != nil {
		t.Fatalf("accel+Enter: handled=%v err=%v", handled, err)
	}
	if sub.calls() != 1 {
		t.Fatalf("submitter calls = %d, want 1", sub.calls())
	}
}

func TestSubmitThroughCRMClient(t *testing.T) {
	var calls int32
	var body domain.Lead
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		header = r.Header.Clone()
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := crm.NewClient(&config.CRMConfig{
		Endpoint:        srv.URL,
		ClientKey:       config.DefaultCRMClientKey,
		ClientKeyHeader: "x-client-key",
	})
	c := leadform.New(client)
	fill(t, c, validLead)

	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("POST count = %d, want 1", calls)
	}
	if diff := cmp.Diff(validLead, body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
	if header.Get("Content-Type") != "application/json" || header.Get("x-client-key") != config.DefaultCRMClientKey {
		t.Fatalf("headers = %v", header)
	}
	if c.State() != leadform.StateSubmitted {
		t.Fatalf("State = %v, want submitted", c.State())
	}
}
