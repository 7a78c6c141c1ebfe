// Package config provides environment helpers for go-polrov commands.
package config

import (
	"os"
	"strconv"
)

// Environment variables read by the commands.
const (
	EnvConfigPath  = "POLROV_CONFIG"
	EnvCameraIndex = "CAMERA_INDEX"
	EnvModelDir    = "MODEL_DIR"
	EnvI2CBus      = "I2C_BUS"
	EnvMotorSerial = "MOTOR_SERIAL"
	EnvTopsideURL  = "TOPSIDE_URL"
)

// String returns the env var or def when unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the env var parsed as an int, or def when unset or invalid.
func Int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// ConfigPath returns the YAML config path from POLROV_CONFIG.
func ConfigPath(def string) string {
	return String(EnvConfigPath, def)
}

// CameraIndex returns the camera device index from CAMERA_INDEX.
func CameraIndex(def int) int {
	return Int(EnvCameraIndex, def)
}

// ModelDir returns the model directory from MODEL_DIR.
func ModelDir(def string) string {
	return String(EnvModelDir, def)
}

// I2CBus returns the PCA9685 bus name from I2C_BUS.
func I2CBus(def string) string {
	return String(EnvI2CBus, def)
}

// MotorSerial returns the serial bridge device from MOTOR_SERIAL.
func MotorSerial(def string) string {
	return String(EnvMotorSerial, def)
}

// TopsideURL returns the topside WebSocket URL from TOPSIDE_URL.
func TopsideURL(def string) string {
	return String(EnvTopsideURL, def)
}
