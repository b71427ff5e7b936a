package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"road-tracer/internal/repair"
	"road-tracer/pkg/logger"
)

// EnvPrefix starts the name of every parameter override variable.
const EnvPrefix = "ROADTRACE_"

// LoadEnv loads a .env file from the working directory into the process
// environment, if present. Variables already set are not overwritten.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

// GetEnv returns the value of key, or "" if it is unset.
func GetEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return ""
	}
	return value
}

// GetEnvString returns the value of key, or defaultValue if it is unset.
func GetEnvString(key string, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

// GetEnvFloat returns key parsed as a number, or defaultValue if it is
// unset or malformed.
func GetEnvFloat(key string, defaultValue float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logger.Warn("Ignoring malformed number", "key", key, "value", value)
		return defaultValue
	}
	return f
}

// GetEnvInt returns key parsed as an integer, or defaultValue if it is
// unset or malformed.
func GetEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logger.Warn("Ignoring malformed integer", "key", key, "value", value)
		return defaultValue
	}
	return n
}

// GetEnvBool returns key as a boolean, or defaultValue unless it is
// exactly "true" or "false".
func GetEnvBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	if value == "true" || value == "false" {
		return value == "true"
	}

	return defaultValue
}

// ApplyEnv overrides parameters from ROADTRACE_* variables.
func (p *Params) ApplyEnv() {
	env := func(name string) string { return EnvPrefix + name }

	p.Vectorize.SimplifyEpsilon = GetEnvFloat(env("SIMPLIFY"), p.Vectorize.SimplifyEpsilon)
	p.Repair.Simplify = GetEnvFloat(env("SIMPLIFY"), p.Repair.Simplify)
	p.Vectorize.DiscardMaxPoints = GetEnvInt(env("DISCARD_MAX_POINTS"), p.Vectorize.DiscardMaxPoints)
	p.Vectorize.DiscardLength = GetEnvFloat(env("DISCARD_LENGTH"), p.Vectorize.DiscardLength)
	p.Thin = GetEnvBool(env("THIN"), p.Thin)
	p.Margin = GetEnvInt(env("MARGIN"), p.Margin)

	p.Repair.SnapTolerance = GetEnvFloat(env("SNAP_TOLERANCE"), p.Repair.SnapTolerance)
	p.Repair.FlickDiscard = GetEnvFloat(env("FLICK_DISCARD"), p.Repair.FlickDiscard)
	p.Repair.ExtendTolerance = GetEnvInt(env("EXTEND_TOLERANCE"), p.Repair.ExtendTolerance)
	p.Repair.JoinTolerance = GetEnvFloat(env("JOIN_TOLERANCE"), p.Repair.JoinTolerance)
	p.Repair.AttachTolerance = GetEnvFloat(env("ATTACH_TOLERANCE"), p.Repair.AttachTolerance)
	if name := GetEnvString(env("STRATEGY"), ""); name != "" {
		if s, ok := repair.ParseStrategy(name); ok {
			p.Repair.Strategy = s
		} else {
			logger.Warn("Ignoring unknown extension strategy", "value", name)
		}
	}
	p.ReskelKernel = GetEnvInt(env("RESKELETON_KERNEL"), p.ReskelKernel)

	p.Score.MaxRoadWidth = GetEnvFloat(env("MAX_ROAD_WIDTH"), p.Score.MaxRoadWidth)
	p.Score.MinRoadWidth = GetEnvFloat(env("MIN_ROAD_WIDTH"), p.Score.MinRoadWidth)
	p.Score.RefMaxDistance = GetEnvFloat(env("REF_MAX_DISTANCE"), p.Score.RefMaxDistance)
	p.Score.RefMaxAngle = GetEnvFloat(env("REF_MAX_ANGLE"), p.Score.RefMaxAngle)
	p.Score.SplitOnEdgeChange = GetEnvBool(env("SPLIT_ON_EDGE_CHANGE"), p.Score.SplitOnEdgeChange)
	p.Score.Workers = GetEnvInt(env("WORKERS"), p.Score.Workers)

	p.MinScore = GetEnvFloat(env("MIN_SCORE"), p.MinScore)
	p.Clusters = GetEnvInt(env("CLUSTERS"), p.Clusters)
	p.GapClose = GetEnvFloat(env("GAP_CLOSE"), p.GapClose)
}
