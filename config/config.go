// Package config loads node settings from a TOML file, the way the
// teacher's settings layer does, and maps them onto raft.Config.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/adrien-zinger/hook-raft/raft"
)

// Settings is the on-disk shape (spec.md §6 settings table). Durations are
// plain milliseconds in the file, converted to time.Duration on load.
type Settings struct {
	Addr               string   `toml:"addr"`
	Port               string   `toml:"port"`
	Nodes              []string `toml:"nodes"`
	Follower           bool     `toml:"follower"`
	TimeoutMinMS       int64    `toml:"timeout_min"`
	TimeoutMaxMS       int64    `toml:"timeout_max"`
	ResponseTimeoutMS  int64    `toml:"response_timeout"`
	PrepareTermPeriod  int64    `toml:"prepare_term_period"`
	NodeID             string   `toml:"node_id"`
	HookDir            string   `toml:"hook_dir"`
	HookPrefix         string   `toml:"hook_prefix"`
}

// Defaults matches spec.md §6's settings table.
func Defaults() Settings {
	return Settings{
		Addr:              "127.0.0.1",
		Port:              "3000",
		Nodes:             nil,
		Follower:          false,
		TimeoutMinMS:      150,
		TimeoutMaxMS:      300,
		ResponseTimeoutMS: 20,
		PrepareTermPeriod: 80,
		NodeID:            "",
		HookDir:           ".",
		HookPrefix:        "hook_",
	}
}

// Load reads and decodes a TOML settings file over the defaults, then
// validates it. A malformed or unreadable file is CannotReadSettings — the
// only fatal error this package can produce.
func Load(path string) (Settings, error) {
	s := Defaults()
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Settings{}, &raft.FatalError{Err: raft.ErrCannotReadSettings, Context: err.Error()}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate enforces spec.md §6's invariant: timeout_min <= timeout_max.
func (s Settings) Validate() error {
	if s.TimeoutMinMS > s.TimeoutMaxMS {
		return &raft.FatalError{
			Err:     raft.ErrCannotReadSettings,
			Context: fmt.Sprintf("timeout_min (%dms) must not exceed timeout_max (%dms)", s.TimeoutMinMS, s.TimeoutMaxMS),
		}
	}
	return nil
}

// ToRaftConfig maps settings onto the raft package's Config shape.
func (s Settings) ToRaftConfig() raft.Config {
	return raft.Config{
		Addr:              s.Addr,
		Port:              s.Port,
		Nodes:             s.Nodes,
		Follower:          s.Follower,
		TimeoutMin:        time.Duration(s.TimeoutMinMS) * time.Millisecond,
		TimeoutMax:        time.Duration(s.TimeoutMaxMS) * time.Millisecond,
		ResponseTimeout:   time.Duration(s.ResponseTimeoutMS) * time.Millisecond,
		PrepareTermPeriod: time.Duration(s.PrepareTermPeriod) * time.Millisecond,
		NodeID:            s.NodeID,
	}
}
