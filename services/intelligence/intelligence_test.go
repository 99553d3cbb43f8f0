package intelligence

import (
	"context"
	"errors"
	"testing"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"autoshop/models"
)

type scriptedCompleter struct {
	reply    string
	err      error
	block    bool
	received [][]models.ChatMessage
}

func (c *scriptedCompleter) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	c.received = append(c.received, append([]models.ChatMessage(nil), messages...))
	if c.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return c.reply, c.err
}

var civic = &models.VehicleInfo{Year: "2015", Make: "Honda", Model: "Civic", Issue: "grinding noise when braking"}

func TestRecommendsShopRepair(t *testing.T) {
	assert.True(t, RecommendsShopRepair("Honestly, you should schedule a repair soon."))
	assert.True(t, RecommendsShopRepair("This is best handled as a REPAIR AT A SHOP."))
	assert.False(t, RecommendsShopRepair("Try replacing the brake pads yourself."))
	assert.False(t, RecommendsShopRepair("a repair  at a shop"))
	assert.False(t, RecommendsShopRepair(""))
}

func TestInitialPrompt(t *testing.T) {
	p := InitialPrompt(civic, nil)
	assert.Contains(t, p, "2015 Honda Civic")
	assert.Contains(t, p, "grinding noise when braking")
	assert.NotContains(t, p, "fault code")

	p = InitialPrompt(civic, &models.FaultCodeDescription{Code: "P0171", Description: "System Too Lean (Bank 1)", Found: true})
	assert.Contains(t, p, "fault code P0171, described as: System Too Lean (Bank 1)")

	p = InitialPrompt(civic, &models.FaultCodeDescription{Code: "P9999"})
	assert.Contains(t, p, "fault code P9999.")
}

func TestDiagnostician_Begin(t *testing.T) {
	c := &scriptedCompleter{reply: "Worn pads. You should schedule a repair."}
	d, err := NewDiagnostician(c, time.Second, zap.NewNop())
	require.NoError(t, err)

	ex, err := d.Begin(context.Background(), civic, nil)
	require.NoError(t, err)
	assert.True(t, ex.RecommendsRepair)
	assert.Equal(t, c.reply, ex.Reply)
	require.Len(t, ex.Transcript, 3)
	assert.Equal(t, models.RoleSystem, ex.Transcript[0].Role)
	assert.Equal(t, models.RoleUser, ex.Transcript[1].Role)
	assert.Equal(t, models.RoleAssistant, ex.Transcript[2].Role)

	require.Len(t, c.received, 1)
	assert.Len(t, c.received[0], 2)
}

func TestDiagnostician_Continue(t *testing.T) {
	c := &scriptedCompleter{reply: "Check the pads first."}
	d, err := NewDiagnostician(c, 0, nil)
	require.NoError(t, err)

	prior := []models.ChatMessage{
		{Role: models.RoleSystem, Content: systemPrompt},
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}
	ex, err := d.Continue(context.Background(), prior, "  what next? ")
	require.NoError(t, err)
	assert.False(t, ex.RecommendsRepair)
	require.Len(t, ex.Transcript, 5)
	assert.Equal(t, "what next?", ex.Transcript[3].Content)
	assert.Len(t, prior, 3, "caller's transcript is not modified")

	_, err = d.Continue(context.Background(), prior, "   ")
	assert.True(t, models.IsValidation(err))
}

func TestDiagnostician_FailureIsExternal(t *testing.T) {
	c := &scriptedCompleter{err: errors.New("quota exceeded")}
	d, err := NewDiagnostician(c, time.Second, nil)
	require.NoError(t, err)

	ex, err := d.Begin(context.Background(), civic, nil)
	require.Error(t, err)
	assert.True(t, models.IsExternal(err))
	assert.Len(t, ex.Transcript, 2, "the user turn is kept so the chat can go on")
	assert.Len(t, c.received, 1, "no retries")
}

func TestDiagnostician_Timeout(t *testing.T) {
	c := &scriptedCompleter{block: true}
	d, err := NewDiagnostician(c, 20*time.Millisecond, nil)
	require.NoError(t, err)

	_, err = d.Begin(context.Background(), civic, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDiagnostician_EmptyReply(t *testing.T) {
	d, err := NewDiagnostician(&scriptedCompleter{reply: "  "}, 0, nil)
	require.NoError(t, err)
	_, err = d.Begin(context.Background(), civic, nil)
	assert.True(t, models.IsExternal(err))
}

func TestUnavailableCompleter(t *testing.T) {
	d, err := NewDiagnostician(UnavailableCompleter{}, 0, nil)
	require.NoError(t, err)
	_, err = d.Begin(context.Background(), civic, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSplitConversation(t *testing.T) {
	system, history, last, err := splitConversation([]models.ChatMessage{
		{Role: models.RoleSystem, Content: "be helpful"},
		{Role: models.RoleUser, Content: "first"},
		{Role: models.RoleUser, Content: "second"},
		{Role: models.RoleAssistant, Content: "answer"},
		{Role: models.RoleUser, Content: "third"},
	})
	require.NoError(t, err)
	assert.Equal(t, "be helpful", system)
	assert.Equal(t, "third", last)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, []genai.Part{genai.Text("first"), genai.Text("second")}, history[0].Parts)
	assert.Equal(t, "model", history[1].Role)

	_, _, _, err = splitConversation([]models.ChatMessage{{Role: models.RoleAssistant, Content: "x"}})
	assert.Error(t, err)
}

func TestReplyText(t *testing.T) {
	_, err := replyText(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	text, err := replyText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("Replace "), genai.Text("the pads.")}},
	}}})
	require.NoError(t, err)
	assert.Equal(t, "Replace the pads.", text)
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
