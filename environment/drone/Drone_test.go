package drone

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/skyrl/godrone/environment/drone/sim"
)

// fakeSim is an in-memory stand-in for the physics engine. Stepping
// applies no dynamics; the state only changes through SetState, which
// is all the reset and layout logic needs.
type fakeSim struct {
	qpos   []float64
	qvel   []float64
	sensor []float64
	act    []float64

	lastCtrl  []float64
	mocapPos  [3]float64
	mocapQuat [4]float64
	steps     int
	closed    bool
}

func newFakeSim(numDrones int, pendulum bool) *fakeSim {
	st := newStrides(pendulum)
	return &fakeSim{
		qpos:   make([]float64, numDrones*st.pos),
		qvel:   make([]float64, numDrones*st.vel),
		sensor: make([]float64, numDrones*sensorStride),
		act:    make([]float64, numDrones*actStride),
	}
}

func (f *fakeSim) Step(ctrl []float64, nFrames int) error {
	if f.closed {
		return fmt.Errorf("step: simulation closed")
	}
	f.lastCtrl = append([]float64{}, ctrl...)
	f.steps += nFrames
	return nil
}

func (f *fakeSim) QPos() []float64 { return append([]float64{}, f.qpos...) }
func (f *fakeSim) QVel() []float64 { return append([]float64{}, f.qvel...) }

func (f *fakeSim) SensorData() []float64 {
	return append([]float64{}, f.sensor...)
}

func (f *fakeSim) Act() []float64 { return append([]float64{}, f.act...) }

func (f *fakeSim) SetState(qpos, qvel []float64) error {
	if f.closed {
		return fmt.Errorf("setState: simulation closed")
	}
	copy(f.qpos, qpos)
	copy(f.qvel, qvel)
	return nil
}

func (f *fakeSim) SetMocap(index int, pos [3]float64, quat [4]float64) error {
	f.mocapPos = pos
	f.mocapQuat = quat
	return nil
}

func (f *fakeSim) Close() error {
	f.closed = true
	return nil
}

type fakeBuilder struct {
	pendulum bool
	builds   int
	sims     []*fakeSim
}

func (b *fakeBuilder) Build(params []sim.Params, frequency,
	mocaps int) (sim.Simulator, error) {
	b.builds++
	s := newFakeSim(len(params), b.pendulum)
	b.sims = append(b.sims, s)
	return s, nil
}

// fakePad reports a fixed axis reading
type fakePad struct {
	axes map[int]float64
}

func (p *fakePad) Poll() (map[int]float64, bool) {
	return p.axes, true
}

func newTestDrone(t *testing.T, cfg *Config) (*Drone, *fakeBuilder) {
	t.Helper()
	builder := &fakeBuilder{pendulum: cfg.Pendulum}
	d, err := New(cfg, builder, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d, builder
}

func hoverActions(n int) []*mat.VecDense {
	actions := make([]*mat.VecDense, n)
	for i := range actions {
		actions[i] = mat.NewVecDense(actionDims,
			[]float64{0.5, 0.5, 0.5, 0.5})
	}
	return actions
}

func TestNewDeterministicStart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumDrones = 2
	cfg.Pendulum = false
	cfg.RandomStartPos = false

	d, _ := newTestDrone(t, cfg)

	obs := d.Observations()
	if len(obs) != 2 {
		t.Fatalf("got %v observations, want 2", len(obs))
	}
	for i, o := range obs {
		if o.Len() != 23+sim.NumValues {
			t.Fatalf("drone %v observation length %v, want %v", i, o.Len(),
				23+sim.NumValues)
		}
		for j := 0; j < 3; j++ {
			if o.AtVec(j) != cfg.StartPos[j] {
				t.Errorf("drone %v position %v = %v, want %v", i, j,
					o.AtVec(j), cfg.StartPos[j])
			}
		}
		for j := 6; j < 12; j++ {
			if o.AtVec(j) != 0 {
				t.Errorf("drone %v velocity entry %v should be zero, got %v",
					i, j, o.AtVec(j))
			}
		}
	}
}

func TestStepAllCtrlMapping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RandomStartPos = false

	d, builder := newTestDrone(t, cfg)

	actions := []*mat.VecDense{
		mat.NewVecDense(actionDims, []float64{0, 0.5, 1, 2}),
	}
	if _, err := d.StepAll(actions); err != nil {
		t.Fatal(err)
	}

	want := []float64{0.1, 0.55, 1, 1}
	got := builder.sims[0].lastCtrl
	if len(got) != len(want) {
		t.Fatalf("control vector length %v, want %v", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("control %v = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStepAllDonesNeverSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumDrones = 3
	cfg.RandomStartPos = false
	cfg.Reference = []float64{100, 0, 15, 0} // every drone is too far

	d, _ := newTestDrone(t, cfg)

	step, err := d.StepAll(hoverActions(3))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if step.Dones[i] {
			t.Errorf("drone %v: Dones must stay false", i)
		}
		if !step.Truncated[i] {
			t.Errorf("drone %v should be truncated past the maximum "+
				"distance", i)
		}
	}
}

func TestStepAllRegen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumDrones = 2
	cfg.RegenSteps = 4
	cfg.TerminationName = StepLimitTermination

	d, builder := newTestDrone(t, cfg)
	before := d.Params()

	for i := 0; i < 3; i++ {
		step, err := d.StepAll(hoverActions(2))
		if err != nil {
			t.Fatal(err)
		}
		for j, trunc := range step.Truncated {
			if trunc {
				t.Errorf("step %v: drone %v truncated before the "+
					"regeneration interval", i, j)
			}
		}
	}

	step, err := d.StepAll(hoverActions(2))
	if err != nil {
		t.Fatal(err)
	}
	for j, trunc := range step.Truncated {
		if !trunc {
			t.Errorf("drone %v should be truncated on the regeneration "+
				"step", j)
		}
	}

	if builder.builds != 2 {
		t.Errorf("simulation built %v times, want 2", builder.builds)
	}
	if !builder.sims[0].closed {
		t.Error("the old simulation should be closed before rebuilding")
	}
	if d.totalSteps != 0 {
		t.Errorf("totalSteps = %v after regeneration, want 0", d.totalSteps)
	}
	for i, n := range d.numSteps {
		if n != 0 {
			t.Errorf("drone %v numSteps = %v after regeneration, want 0",
				i, n)
		}
	}

	after := d.Params()
	same := true
	for i := range before {
		if before[i] != after[i] {
			same = false
		}
	}
	if same {
		t.Error("regeneration should resample the drone parameters")
	}
}

func TestResetAtIsolation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumDrones = 3
	cfg.RandomStartPos = true

	d, builder := newTestDrone(t, cfg)

	for i := 0; i < 2; i++ {
		if _, err := d.StepAll(hoverActions(3)); err != nil {
			t.Fatal(err)
		}
	}

	s := builder.sims[0]
	otherBefore := append([]float64{}, s.qpos[d.st.pos:]...)
	drone0Before := append([]float64{}, s.qpos[:d.st.pos]...)

	if _, _, err := d.ResetAt(0); err != nil {
		t.Fatal(err)
	}

	if d.numSteps[0] != 0 {
		t.Errorf("reset drone numSteps = %v, want 0", d.numSteps[0])
	}
	if d.numSteps[1] != 2 || d.numSteps[2] != 2 {
		t.Errorf("other drones' numSteps = %v, want 2", d.numSteps[1:])
	}

	otherAfter := s.qpos[d.st.pos:]
	for i := range otherBefore {
		if otherAfter[i] != otherBefore[i] {
			t.Fatal("resetting drone 0 must not disturb the other drones")
		}
	}

	drone0After := s.qpos[:d.st.pos]
	same := true
	for i := range drone0Before {
		if drone0After[i] != drone0Before[i] {
			same = false
		}
	}
	if same {
		t.Error("resetting drone 0 should resample its state")
	}
}

func TestResetAtOutOfRangePanics(t *testing.T) {
	cfg := DefaultConfig()
	d, _ := newTestDrone(t, cfg)

	defer func() {
		if recover() == nil {
			t.Error("out-of-range reset index should panic")
		}
	}()
	d.ResetAt(1)
}

func TestStepAllBadBatchPanics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumDrones = 2
	d, _ := newTestDrone(t, cfg)

	defer func() {
		if recover() == nil {
			t.Error("wrong batch size should panic")
		}
	}()
	d.StepAll(hoverActions(1))
}

func TestControlledDowngradeWithoutGamepad(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Controlled = true

	builder := &fakeBuilder{pendulum: cfg.Pendulum}
	d, err := New(cfg, builder, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if d.controlled {
		t.Error("controlled mode should be disabled without a gamepad")
	}

	before := d.Reference()
	if _, err := d.StepAll(hoverActions(1)); err != nil {
		t.Fatal(err)
	}
	after := d.Reference()
	for i := range before {
		if after[i] != before[i] {
			t.Error("the reference should stay constant without a gamepad")
			break
		}
	}
}

func TestControlledSteering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Controlled = true

	pad := &fakePad{axes: map[int]float64{axisX: 1}}
	builder := &fakeBuilder{pendulum: cfg.Pendulum}
	d, err := New(cfg, builder, pad, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if !d.controlled {
		t.Fatal("controlled mode should be enabled with a connected gamepad")
	}

	before := d.Reference()
	if _, err := d.StepAll(hoverActions(1)); err != nil {
		t.Fatal(err)
	}
	after := d.Reference()

	if after[0] <= before[0] {
		t.Errorf("x reference should advance, got %v -> %v", before[0],
			after[0])
	}

	// the marker tracks the reference
	s := builder.sims[0]
	if s.mocapPos[0] != after[0] || s.mocapPos[2] != after[2] {
		t.Errorf("marker position %v does not track the reference %v",
			s.mocapPos, after)
	}
}

func TestReferenceMarkerSyncedWhenConstant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reference = []float64{1, 2, 3, 0}

	d, builder := newTestDrone(t, cfg)
	if _, err := d.StepAll(hoverActions(1)); err != nil {
		t.Fatal(err)
	}

	s := builder.sims[0]
	if s.mocapPos != [3]float64{1, 2, 3} {
		t.Errorf("marker position = %v, want [1 2 3]", s.mocapPos)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	d, builder := newTestDrone(t, cfg)

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
	if !builder.sims[0].closed {
		t.Error("closing the environment should close the simulation")
	}

	if _, err := d.StepAll(hoverActions(1)); err == nil {
		t.Error("stepping a closed environment should fail")
	}
	if _, _, err := d.ResetAll(); err == nil {
		t.Error("resetting a closed environment should fail")
	}
}

func TestResetAllZeroesCounters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumDrones = 2

	d, _ := newTestDrone(t, cfg)
	for i := 0; i < 3; i++ {
		if _, err := d.StepAll(hoverActions(2)); err != nil {
			t.Fatal(err)
		}
	}

	obs, infos, err := d.ResetAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != 2 || len(infos) != 2 {
		t.Fatalf("got %v observations and %v infos, want 2 of each",
			len(obs), len(infos))
	}
	for i, n := range d.numSteps {
		if n != 0 {
			t.Errorf("drone %v numSteps = %v after ResetAll, want 0", i, n)
		}
	}
}
