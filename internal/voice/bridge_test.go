package voice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plancheck/plancheck/internal/voice"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	extraction voice.Extraction
	err        error
	calls      int
}

func (s *stubExtractor) Extract(_ context.Context, _ string, _ time.Time) (voice.Extraction, error) {
	s.calls++
	if s.err != nil {
		return voice.Extraction{}, s.err
	}
	return s.extraction, nil
}

func TestWakePhraseShortCircuit(t *testing.T) {
	extractor := &stubExtractor{}
	b := voice.NewBridge("플랜체크", extractor)

	_, err := b.Handle(context.Background(), "내일 회의 잡아줘")
	require.ErrorIs(t, err, voice.ErrNoCommand)
	require.Zero(t, extractor.calls)
}

func TestExtractionFailureYieldsFailedIntent(t *testing.T) {
	extractor := &stubExtractor{err: errors.New("model unavailable")}
	b := voice.NewBridge("플랜체크", extractor)

	result, err := b.Handle(context.Background(), "플랜체크 내일 회의 잡아줘")
	require.NoError(t, err)
	require.Equal(t, voice.IntentFailed, result.Intent)
	require.NotEmpty(t, result.Message)
	require.Nil(t, result.Schedule)
	require.Equal(t, 1, extractor.calls)
}

func TestUnknownIntentYieldsFailedIntent(t *testing.T) {
	extractor := &stubExtractor{extraction: voice.Extraction{Type: "Reschedule", Message: "?"}}
	b := voice.NewBridge("플랜체크", extractor)

	result, err := b.Handle(context.Background(), "플랜체크 회의 옮겨줘")
	require.NoError(t, err)
	require.Equal(t, voice.IntentFailed, result.Intent)
}

func TestAddBuildsSchedule(t *testing.T) {
	extractor := &stubExtractor{extraction: voice.Extraction{
		Type:      voice.IntentAdd,
		Title:     "전략 회의",
		Date:      "2300-01-02",
		StartTime: "2300-01-02T14:00:00Z",
		Message:   "일정을 추가했습니다.",
	}}
	b := voice.NewBridge("플랜체크", extractor)

	result, err := b.Handle(context.Background(), "플랜체크 내일 2시에 전략 회의")
	require.NoError(t, err)
	require.Equal(t, voice.IntentAdd, result.Intent)
	require.NotNil(t, result.Schedule)

	s := result.Schedule
	require.Equal(t, "전략 회의", s.Title)
	require.NotNil(t, s.StartTime)
	require.Equal(t, time.Date(2300, 1, 2, 14, 0, 0, 0, time.UTC), *s.StartTime)
	// End defaults to one hour after start.
	require.NotNil(t, s.EndTime)
	require.Equal(t, time.Date(2300, 1, 2, 15, 0, 0, 0, time.UTC), *s.EndTime)
	require.True(t, s.IsReminded)
	require.Equal(t, 60, s.RemindBeforeMinutes)
	require.NoError(t, s.Validate())
}

func TestAddWithoutTitleUsesPlaceholder(t *testing.T) {
	extractor := &stubExtractor{extraction: voice.Extraction{
		Type:    voice.IntentAdd,
		Message: "추가했습니다.",
	}}
	b := voice.NewBridge("플랜체크", extractor)

	result, err := b.Handle(context.Background(), "플랜체크 일정 추가")
	require.NoError(t, err)
	require.NotNil(t, result.Schedule)
	require.NotEmpty(t, result.Schedule.Title)
	require.True(t, result.Schedule.IsHeld())
}

func TestDeleteSurfacesMessageOnly(t *testing.T) {
	extractor := &stubExtractor{extraction: voice.Extraction{
		Type:    voice.IntentDelete,
		Title:   "전략 회의",
		Message: "삭제 기능은 곧 제공됩니다.",
	}}
	b := voice.NewBridge("플랜체크", extractor)

	result, err := b.Handle(context.Background(), "플랜체크 전략 회의 지워줘")
	require.NoError(t, err)
	require.Equal(t, voice.IntentDelete, result.Intent)
	require.Equal(t, "삭제 기능은 곧 제공됩니다.", result.Message)
	require.Nil(t, result.Schedule)
}
