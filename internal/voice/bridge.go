package voice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/plancheck/plancheck/internal/schedule"
	log "github.com/sirupsen/logrus"
)

// ErrNoCommand means the utterance did not start with the wake phrase. It is
// a local short-circuit, not a failure: no extractor call is made.
var ErrNoCommand = errors.New("utterance is not a command")

type Intent string

const (
	IntentAdd    Intent = "Add"
	IntentDelete Intent = "Delete"
	IntentModify Intent = "Modify"
	// IntentFailed carries the apology message when extraction fails. The
	// original app labeled failures as Add; the dedicated variant keeps the
	// add path clean.
	IntentFailed Intent = "Failed"
)

const (
	defaultTitle   = "새로운 회의"
	apologyMessage = "죄송합니다. 음성 명령을 이해하는 데 실패했습니다. 다시 말씀해 주세요."
)

// Extraction is the structured intent the language service returns. Date is
// a YYYY-MM-DD day, StartTime/EndTime are RFC 3339 instants; any of the
// three may be empty.
type Extraction struct {
	Type      Intent `json:"type"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Message   string `json:"message"`
}

type Extractor interface {
	Extract(ctx context.Context, utterance string, now time.Time) (Extraction, error)
}

// Result of handling an utterance. Schedule is set only for the Add intent.
type Result struct {
	Intent   Intent             `json:"intent"`
	Message  string             `json:"message"`
	Schedule *schedule.Schedule `json:"schedule,omitempty"`
}

// Bridge turns raw utterances into scheduling commands. Only Add is wired to
// produce a schedule; Delete and Modify surface the extractor's message.
type Bridge struct {
	wakePhrase string
	extractor  Extractor
	now        func() time.Time
}

func NewBridge(wakePhrase string, extractor Extractor) *Bridge {
	return &Bridge{wakePhrase: wakePhrase, extractor: extractor, now: time.Now}
}

func (b *Bridge) Handle(ctx context.Context, utterance string) (Result, error) {
	if !strings.HasPrefix(utterance, b.wakePhrase) {
		return Result{}, ErrNoCommand
	}

	now := b.now()
	ext, err := b.extractor.Extract(ctx, utterance, now)
	if err != nil {
		log.Errorf("voice extraction failed: %v", err)
		return Result{Intent: IntentFailed, Message: apologyMessage}, nil
	}

	switch ext.Type {
	case IntentAdd:
		s := b.buildSchedule(ext, now)
		return Result{Intent: IntentAdd, Message: ext.Message, Schedule: &s}, nil
	case IntentDelete, IntentModify:
		return Result{Intent: ext.Type, Message: ext.Message}, nil
	default:
		log.Errorf("voice extraction returned unknown intent %q", ext.Type)
		return Result{Intent: IntentFailed, Message: apologyMessage}, nil
	}
}

func (b *Bridge) buildSchedule(ext Extraction, now time.Time) schedule.Schedule {
	title := ext.Title
	if title == "" {
		title = defaultTitle
	}

	date := now
	if ext.Date != "" {
		if d, err := time.ParseInLocation("2006-01-02", ext.Date, now.Location()); err == nil {
			date = d
		} else {
			log.Warnf("failed to parse voice date %q: %v", ext.Date, err)
		}
	}

	return schedule.NewFromVoice(title, date, parseInstant(ext.StartTime), parseInstant(ext.EndTime))
}

func parseInstant(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		log.Warnf("failed to parse voice instant %q: %v", s, err)
		return nil
	}
	return &t
}
