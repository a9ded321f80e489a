package datarecording

import (
	"os"
	"strings"
	"time"

	"github.com/sarchlab/mmiodrv/creec"
)

const (
	// ResultTableName holds one row per validated direction.
	ResultTableName = "transfer_result"

	// TransferTableName holds one row per completed transfer.
	TransferTableName = "transfer"

	// ExecTableName holds properties of the run.
	ExecTableName = "exec_info"
)

// ResultEntry is one row of the result table.
type ResultEntry struct {
	Name       string
	Received   int
	Expected   int
	Mismatches int
	Passed     bool
}

// TransferEntry is one row of the transfer table.
type TransferEntry struct {
	Session      string
	Sent         string
	Received     string
	Beats        int
	PollAttempts int
	ElapsedSec   float64
}

type execInfo struct {
	Property string
	Value    string
}

// A RunLog records the outcome of a run: when and how it was started,
// every transfer, and every validation result.
type RunLog struct {
	recorder Recorder
}

// NewRunLog creates the run tables and records the start of the run.
func NewRunLog(r Recorder) (*RunLog, error) {
	tables := []struct {
		name   string
		sample any
	}{
		{ExecTableName, execInfo{}},
		{TransferTableName, TransferEntry{}},
		{ResultTableName, ResultEntry{}},
	}

	for _, t := range tables {
		if err := r.CreateTable(t.name, t.sample); err != nil {
			return nil, err
		}
	}

	l := &RunLog{recorder: r}

	entries := []execInfo{
		{"Start Time", timestamp()},
		{"Command", strings.Join(os.Args, " ")},
	}

	if wd, err := os.Getwd(); err == nil {
		entries = append(entries, execInfo{"Working Directory", wd})
	}

	for _, e := range entries {
		if err := r.InsertData(ExecTableName, e); err != nil {
			return nil, err
		}
	}

	return l, nil
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05.000000000")
}

// RecordTransfer records a completed transfer.
func (l *RunLog) RecordTransfer(session string, t creec.Transfer) error {
	return l.recorder.InsertData(TransferTableName, TransferEntry{
		Session:      session,
		Sent:         t.Sent.String(),
		Received:     t.Received.String(),
		Beats:        len(t.Beats),
		PollAttempts: t.PollAttempts,
		ElapsedSec:   t.Elapsed.Seconds(),
	})
}

// RecordResult records a validation result.
func (l *RunLog) RecordResult(r creec.Result) error {
	return l.recorder.InsertData(ResultTableName, ResultEntry{
		Name:       r.Name,
		Received:   r.Received,
		Expected:   r.Expected,
		Mismatches: r.Mismatches,
		Passed:     r.Passed(),
	})
}

// RecordRoundTrip records both transfers and both results of a round trip.
func (l *RunLog) RecordRoundTrip(enc, dec string, r creec.RoundTripReport) error {
	if err := l.RecordTransfer(enc, r.EncodeTransfer); err != nil {
		return err
	}

	if err := l.RecordTransfer(dec, r.DecodeTransfer); err != nil {
		return err
	}

	if err := l.RecordResult(r.Encode); err != nil {
		return err
	}

	return l.RecordResult(r.Decode)
}

// End records the end of the run and flushes.
func (l *RunLog) End() error {
	if err := l.recorder.InsertData(ExecTableName,
		execInfo{"End Time", timestamp()}); err != nil {
		return err
	}

	return l.recorder.Flush()
}
