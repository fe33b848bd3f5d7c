package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/hybsim/internal/dynamo"
	"github.com/san-kum/hybsim/internal/sim"
)

// ErrNotFound is returned when a run id is unknown to the store.
var ErrNotFound = errors.New("storage: run not found")

type RunMetadata struct {
	ID          string             `json:"id"`
	Model       string             `json:"model"`
	Timestamp   time.Time          `json:"timestamp"`
	Integrator  string             `json:"integrator"`
	Policy      string             `json:"policy"`
	Controller  string             `json:"controller,omitempty"`
	Seed        int64              `json:"seed"`
	StepSize    float64            `json:"step_size"`
	TimeHorizon float64            `json:"time_horizon"`
	JumpHorizon int                `json:"jump_horizon"`
	StateSize   int                `json:"state_size"`
	OutputSize  int                `json:"output_size"`
	Status      string             `json:"status"`
	Steps       int                `json:"steps"`
	Jumps       int                `json:"jumps"`
	FinalT      float64            `json:"final_t"`
	Params      [][]float64        `json:"params,omitempty"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Sample is one row of a stored trajectory.
type Sample struct {
	T      float64   `json:"t"`
	J      int       `json:"j"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Jumped bool      `json:"jumped"`
}

type Store interface {
	Init(ctx context.Context) error
	// Save stores a run and returns its id. An empty meta.ID is replaced
	// by a fresh one.
	Save(ctx context.Context, meta RunMetadata, samples []Sample) (string, error)
	List(ctx context.Context) ([]RunMetadata, error)
	Load(ctx context.Context, id string) (*RunMetadata, error)
	LoadTrajectory(ctx context.Context, id string) ([]Sample, error)
	Close() error
}

// NewRunID returns a unique id prefixed with the model name.
func NewRunID(model string) string {
	return fmt.Sprintf("%s_%s", model, uuid.NewString()[:8])
}

// NewRunMetadata describes a finished run of contract c.
func NewRunMetadata(model string, c dynamo.Contract, result *sim.Result) RunMetadata {
	final := result.Final()
	return RunMetadata{
		Model:       model,
		Timestamp:   time.Now(),
		StepSize:    c.StepSize,
		TimeHorizon: c.TimeHorizon,
		JumpHorizon: c.JumpHorizon,
		StateSize:   c.StateSize,
		OutputSize:  c.OutputSize,
		Status:      result.Status.String(),
		Steps:       result.StepsTaken,
		Jumps:       result.Jumps,
		FinalT:      final.T(),
		Metrics:     result.Metrics,
	}
}

// SamplesFromResult flattens a result into rows, starting with the initial
// state. The initial row has no output.
func SamplesFromResult(result *sim.Result) []Sample {
	out := make([]Sample, 0, len(result.Samples)+1)
	out = append(out, Sample{
		T: result.Initial.T(),
		J: result.Initial.J(),
		X: result.Initial.X().Clone(),
	})
	for _, s := range result.Samples {
		out = append(out, Sample{
			T:      s.State.T(),
			J:      s.State.J(),
			X:      s.State.X().Clone(),
			Y:      append([]float64(nil), s.Output...),
			Jumped: s.Jumped,
		})
	}
	return out
}

// Column returns entry i of each sample's extended vector: 0 is t, 1 is j
// and 2.. index into x.
func Column(samples []Sample, i int) []float64 {
	out := make([]float64, len(samples))
	for k, s := range samples {
		switch {
		case i == 0:
			out[k] = s.T
		case i == 1:
			out[k] = float64(s.J)
		case i-2 < len(s.X):
			out[k] = s.X[i-2]
		}
	}
	return out
}

func sortRuns(runs []RunMetadata) {
	sort.SliceStable(runs, func(a, b int) bool {
		return runs[a].Timestamp.Before(runs[b].Timestamp)
	})
}
