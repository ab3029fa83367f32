package mujocosim

import (
	"os"
	"path/filepath"
)

// keyPathEnv overrides the location of the MuJoCo license key
const keyPathEnv = "MUJOCO_KEY_PATH"

// keyPath returns the path of the MuJoCo license key: the path named
// by the MUJOCO_KEY_PATH environment variable when set, otherwise the
// conventional ~/.mujoco/mjkey.txt.
func keyPath() string {
	if path := os.Getenv(keyPathEnv); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "mjkey.txt"
	}
	return filepath.Join(home, ".mujoco", "mjkey.txt")
}
