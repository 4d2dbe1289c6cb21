// Package main is a session hook that appends one line per session event
// to a log file in the plugin directory.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type result struct {
	Caught  int     `json:"caught"`
	Missed  int     `json:"missed"`
	Ratio   float64 `json:"ratio"`
	Verdict string  `json:"verdict"`
}

type request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	Result    *result         `json:"result,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
}

type config struct {
	File string `json:"file"`
}

type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		reply(fmt.Errorf("decode request: %w", err))
		return
	}

	cfg := config{File: "sessions.log"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			reply(fmt.Errorf("decode config: %w", err))
			return
		}
	}

	reply(appendLine(cfg.File, format(req)))
}

func format(req request) string {
	line := fmt.Sprintf("%s %s %s", time.Now().Format(time.RFC3339), req.Event, req.SessionID)
	if req.Result != nil {
		line += fmt.Sprintf(" caught=%d missed=%d ratio=%g verdict=%q",
			req.Result.Caught, req.Result.Missed, req.Result.Ratio, req.Result.Verdict)
	}
	return line
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintln(f, line)
	return err
}

func reply(err error) {
	resp := response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
