package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ariavoice/aria/history"
	"github.com/ariavoice/aria/internal/types"
	"github.com/ariavoice/aria/llm"
	"github.com/ariavoice/aria/router"
)

// syncBridge runs everything inline so tests observe effects directly.
type syncBridge struct{}

func (syncBridge) Schedule(f func())           { f() }
func (syncBridge) Spawn(name string, f func()) { f() }

type fakeOutput struct {
	typed   []string
	pasted  []string
	typeErr error
}

func (o *fakeOutput) TypeText(text string) error {
	if o.typeErr != nil {
		return o.typeErr
	}
	o.typed = append(o.typed, text)
	return nil
}

func (o *fakeOutput) Paste(text string) error {
	o.pasted = append(o.pasted, text)
	return nil
}

type fakeSpeaker struct{ spoken []string }

func (s *fakeSpeaker) Speak(text string) { s.spoken = append(s.spoken, text) }

type fakeScreens struct {
	image    string
	err      error
	captures int
}

func (s *fakeScreens) Capture(ctx context.Context) (string, error) {
	s.captures++
	if s.err != nil {
		return "", s.err
	}
	return s.image, nil
}

type fakePresenter struct {
	chatTurns []string
	answers   []string
	statuses  []string
}

func (p *fakePresenter) LogChatTurn(role, text string) {
	p.chatTurns = append(p.chatTurns, role+": "+text)
}
func (p *fakePresenter) LogAnswer(text string)    { p.answers = append(p.answers, text) }
func (p *fakePresenter) NotifyStatus(text string) { p.statuses = append(p.statuses, text) }

// orderedCompleter records whether the screenshot happened before the
// completion call.
type orderedCompleter struct {
	reply       string
	err         error
	gotMessages []llm.Message
	screens     *fakeScreens
	capturesAt  int
}

func (c *orderedCompleter) Complete(ctx context.Context, messages []llm.Message) (string, types.Usage, error) {
	c.gotMessages = messages
	if c.screens != nil {
		c.capturesAt = c.screens.captures
	}
	if c.err != nil {
		return "", types.Usage{}, c.err
	}
	return c.reply, types.Usage{}, nil
}

type env struct {
	store   *history.Store
	output  *fakeOutput
	speaker *fakeSpeaker
	screens *fakeScreens
	present *fakePresenter
	chat    *orderedCompleter
	vision  *orderedCompleter
	d       *Dispatcher
}

func newEnv() *env {
	e := &env{
		store:   history.NewStore(0, 0),
		output:  &fakeOutput{},
		speaker: &fakeSpeaker{},
		screens: &fakeScreens{image: "IMGDATA"},
		present: &fakePresenter{},
		chat:    &orderedCompleter{reply: "chat reply"},
		vision:  &orderedCompleter{reply: "vision reply"},
	}
	e.vision.screens = e.screens
	e.d = New(Config{SystemPrompt: "be helpful"}, e.store, e.chat, e.vision,
		e.output, e.speaker, e.screens, e.present, syncBridge{})
	return e
}

func TestDictationTypesWithoutHistory(t *testing.T) {
	e := newEnv()
	e.d.Dispatch(router.Decision{Action: types.ActionDictation, Text: "note to self"}, "")

	if len(e.output.typed) != 1 || e.output.typed[0] != "note to self" {
		t.Fatalf("typed = %v", e.output.typed)
	}
	if len(e.store.Messages()) != 0 {
		t.Errorf("dictation polluted history: %v", e.store.Messages())
	}
	answers := e.store.Answers()
	if len(answers) != 1 || answers[0].Text != "note to self" {
		t.Errorf("answers = %v", answers)
	}
	if len(e.speaker.spoken) != 0 {
		t.Errorf("dictation spoke: %v", e.speaker.spoken)
	}
}

func TestDictationTypeFailureMutatesNothing(t *testing.T) {
	e := newEnv()
	e.output.typeErr = errors.New("no display")
	e.d.Dispatch(router.Decision{Action: types.ActionDictation, Text: "note"}, "")
	if len(e.store.Answers()) != 0 {
		t.Errorf("answers = %v", e.store.Answers())
	}
}

func TestAgentSuccessPath(t *testing.T) {
	e := newEnv()
	e.d.Dispatch(router.Decision{Action: types.ActionAgent, Text: "what time is it"}, "")

	msgs := e.store.Messages()
	if len(msgs) != 2 {
		t.Fatalf("history = %v", msgs)
	}
	if msgs[0].Role != history.RoleUser || msgs[0].Content != "what time is it" {
		t.Errorf("user turn = %+v", msgs[0])
	}
	if msgs[1].Role != history.RoleAssistant || msgs[1].Content != "chat reply" {
		t.Errorf("assistant turn = %+v", msgs[1])
	}
	if len(e.output.typed) != 1 || e.output.typed[0] != "chat reply" {
		t.Errorf("typed = %v", e.output.typed)
	}
	if len(e.speaker.spoken) != 1 || e.speaker.spoken[0] != "chat reply" {
		t.Errorf("spoken = %v", e.speaker.spoken)
	}
	if len(e.store.Answers()) != 1 {
		t.Errorf("answers = %v", e.store.Answers())
	}
}

func TestAgentFailureMutatesNothing(t *testing.T) {
	e := newEnv()
	e.chat.err = errors.New("timeout")
	e.d.Dispatch(router.Decision{Action: types.ActionAgent, Text: "question"}, "")

	if len(e.store.Messages()) != 0 || len(e.store.Answers()) != 0 {
		t.Error("failed completion left partial state")
	}
	if len(e.output.typed) != 0 || len(e.speaker.spoken) != 0 {
		t.Error("failed completion produced output")
	}
}

func TestAgentEmptyReplyMutatesNothing(t *testing.T) {
	e := newEnv()
	e.chat.reply = "   "
	e.d.Dispatch(router.Decision{Action: types.ActionAgent, Text: "question"}, "")
	if len(e.store.Messages()) != 0 || len(e.output.typed) != 0 {
		t.Error("empty reply treated as success")
	}
}

func TestAgentSelectionBuildsRewriteAndPastes(t *testing.T) {
	e := newEnv()
	e.d.Dispatch(router.Decision{Action: types.ActionAgent, Text: "make this formal"}, "hey whats up")

	found := false
	for _, m := range e.chat.gotMessages {
		if m.Role == history.RoleSystem && strings.Contains(m.Content, "hey whats up") {
			found = true
		}
	}
	if !found {
		t.Errorf("selection block missing from %v", e.chat.gotMessages)
	}
	if len(e.output.pasted) != 1 || e.output.pasted[0] != "chat reply" {
		t.Errorf("pasted = %v, typed = %v", e.output.pasted, e.output.typed)
	}
}

func TestVisionCapturesScreenBeforeCompletion(t *testing.T) {
	e := newEnv()
	e.d.Dispatch(router.Decision{Action: types.ActionVision, Text: "what is this dialog"}, "")

	if e.screens.captures != 1 {
		t.Fatalf("captures = %d", e.screens.captures)
	}
	if e.vision.capturesAt != 1 {
		t.Errorf("completion ran before screenshot (captures at call = %d)", e.vision.capturesAt)
	}
	last := e.vision.gotMessages[len(e.vision.gotMessages)-1]
	if last.Image != "IMGDATA" {
		t.Errorf("user turn image = %q", last.Image)
	}

	msgs := e.store.Messages()
	if len(msgs) != 2 {
		t.Fatalf("history = %v", msgs)
	}
	if msgs[0].Origin != history.OriginScreen {
		t.Errorf("user turn origin = %q", msgs[0].Origin)
	}
	if !strings.HasSuffix(msgs[0].Content, "[Vision]") {
		t.Errorf("user turn content = %q", msgs[0].Content)
	}
}

func TestVisionScreenshotFailureAborts(t *testing.T) {
	e := newEnv()
	e.screens.err = errors.New("no display")
	e.d.Dispatch(router.Decision{Action: types.ActionVision, Text: "look"}, "")

	if e.vision.gotMessages != nil {
		t.Error("completion ran despite screenshot failure")
	}
	if len(e.store.Messages()) != 0 {
		t.Error("failed vision turn mutated history")
	}
}
