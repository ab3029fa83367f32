// Package mujocosim adapts the MuJoCo physics engine to the sim
// interfaces consumed by the drone environment. Model descriptions are
// produced by an external MJCF generator from the per-drone physical
// parameters and loaded here.
package mujocosim

// #cgo CFLAGS: -O2 -I${SRCDIR}/../../../../.mujoco/mujoco200_linux/include -mavx -pthread
// #cgo LDFLAGS: -L${SRCDIR}/../../../../.mujoco/mujoco200_linux/bin -lmujoco200nogl
// #include "mujoco.h"
// #include <stdio.h>
// #include <stdlib.h>
//
// void setQPos(mjData* data, double* positions, int len) {
// 	for (int i = 0; i < len; i++) {
// 		data->qpos[i] = positions[i];
// 	}
// }
//
// void setQVel(mjData* data, double* velocities, int len) {
// 	for (int i = 0; i < len; i++) {
// 		data->qvel[i] = velocities[i];
// 	}
// }
//
// void setCtrl(mjData* data, double* ctrl, int len) {
// 	for (int i = 0; i < len; i++) {
// 		data->ctrl[i] = ctrl[i];
// 	}
// }
//
// void setMocap(mjData* data, int idx, double* pos, double* quat) {
// 	for (int i = 0; i < 3; i++) {
// 		data->mocap_pos[3*idx + i] = pos[i];
// 	}
// 	for (int i = 0; i < 4; i++) {
// 		data->mocap_quat[4*idx + i] = quat[i];
// 	}
// }
import "C"

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/skyrl/godrone/environment/drone/sim"
)

func init() {
	// Activate MuJoCo. mj_loadXML and mj_makeData refuse to run
	// before activation.
	mjKey := C.CString(keyPath())
	defer C.free(unsafe.Pointer(mjKey))
	C.mj_activate(mjKey)
}

// MJCF generates a MuJoCo model description for a batch of drones.
// The returned document must lay out one free-jointed drone body per
// entry of params, in order, followed by mocaps marker bodies.
type MJCF func(params []sim.Params, frequency, mocaps int) ([]byte, error)

// Builder builds MuJoCo-backed simulators from drone parameters.
// Builder implements sim.Builder.
type Builder struct {
	mjcf MJCF
}

// NewBuilder returns a Builder that generates model descriptions with
// the given MJCF generator
func NewBuilder(mjcf MJCF) *Builder {
	return &Builder{mjcf: mjcf}
}

// Build generates the model description for the given parameters,
// loads it into MuJoCo, and returns the live simulation
func (b *Builder) Build(params []sim.Params, frequency,
	mocaps int) (sim.Simulator, error) {
	xml, err := b.mjcf(params, frequency, mocaps)
	if err != nil {
		return nil, fmt.Errorf("build: could not generate model: %v", err)
	}

	// mj_loadXML only reads from a path
	tmp, err := os.CreateTemp("", "drone-*.xml")
	if err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(xml); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("build: could not write model: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("build: %v", err)
	}

	model, data, err := loadXML(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("build: could not load model: %v", err)
	}

	return &Simulator{
		model:       model,
		data:        data,
		nq:          int(model.nq),
		nv:          int(model.nv),
		nu:          int(model.nu),
		na:          int(model.na),
		nsensordata: int(model.nsensordata),
		nmocap:      int(model.nmocap),
	}, nil
}

// Simulator is a live MuJoCo simulation. Simulator implements
// sim.Simulator.
type Simulator struct {
	model *C.mjModel
	data  *C.mjData

	nq, nv, nu, na, nsensordata, nmocap int
}

// Step applies the control vector and advances the simulation by
// nFrames physics sub-steps
func (s *Simulator) Step(ctrl []float64, nFrames int) error {
	if len(ctrl) != s.nu {
		return fmt.Errorf("step: invalid control dimensions \n\thave(%v) "+
			"\n\twant(%v)", len(ctrl), s.nu)
	}

	C.setCtrl(s.data, (*C.double)(unsafe.Pointer(&ctrl[0])), C.int(len(ctrl)))
	for i := 0; i < nFrames; i++ {
		C.mj_step(s.model, s.data)
	}
	return nil
}

// QPos returns a copy of the full position array
func (s *Simulator) QPos() []float64 {
	return f64SliceC2Go(s.data.qpos, s.nq)
}

// QVel returns a copy of the full velocity array
func (s *Simulator) QVel() []float64 {
	return f64SliceC2Go(s.data.qvel, s.nv)
}

// SensorData returns a copy of the sensor array
func (s *Simulator) SensorData() []float64 {
	return f64SliceC2Go(s.data.sensordata, s.nsensordata)
}

// Act returns a copy of the actuator activation array
func (s *Simulator) Act() []float64 {
	return f64SliceC2Go(s.data.act, s.na)
}

// SetState overwrites the full position and velocity arrays and
// recomputes the dependent quantities
func (s *Simulator) SetState(qpos, qvel []float64) error {
	if len(qpos) != s.nq {
		return fmt.Errorf("setState: invalid position dimensions \n\t"+
			"have(%v) \n\twant(%v)", len(qpos), s.nq)
	}
	if len(qvel) != s.nv {
		return fmt.Errorf("setState: invalid velocity dimensions \n\t"+
			"have(%v) \n\twant(%v)", len(qvel), s.nv)
	}

	C.setQPos(s.data, (*C.double)(unsafe.Pointer(&qpos[0])), C.int(len(qpos)))
	C.setQVel(s.data, (*C.double)(unsafe.Pointer(&qvel[0])), C.int(len(qvel)))
	C.mj_forward(s.model, s.data)
	return nil
}

// SetMocap places the motion-capture body at the given index
func (s *Simulator) SetMocap(index int, pos [3]float64,
	quat [4]float64) error {
	if index < 0 || index >= s.nmocap {
		return fmt.Errorf("setMocap: mocap index %v out of range [0, %v)",
			index, s.nmocap)
	}

	C.setMocap(s.data, C.int(index),
		(*C.double)(unsafe.Pointer(&pos[0])),
		(*C.double)(unsafe.Pointer(&quat[0])))
	return nil
}

// Close releases the MuJoCo model and data
func (s *Simulator) Close() error {
	C.mj_deleteData(s.data)
	C.mj_deleteModel(s.model)
	return nil
}

func loadXML(file string) (*C.mjModel, *C.mjData, error) {
	modelName := C.CString(file)
	defer C.free(unsafe.Pointer(modelName))

	var err [1000]C.char
	model := C.mj_loadXML(modelName, nil, &err[0], C.int(len(err)))
	goErr := C.GoString(&err[0])
	if model == nil || len(goErr) != 0 {
		return nil, nil, fmt.Errorf("could not construct model: %v", goErr)
	}

	data := C.mj_makeData(model)
	if data == nil {
		C.mj_deleteModel(model)
		return nil, nil, fmt.Errorf("could not construct mjData")
	}

	return model, data, nil
}

// f64SliceC2Go converts a copy of a C double array to a Go []float64
//
// See https://github.com/golang/go/wiki/cgo#turning-c-arrays-into-go-slices
func f64SliceC2Go(array *C.double, len int) []float64 {
	list := (*[1 << 30]float64)(unsafe.Pointer(array))[:len:len]

	newList := make([]float64, len)
	copy(newList, list)

	return newList
}
