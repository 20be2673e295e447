package service

import (
	"os"
	"path/filepath"
	"time"

	sdkpb "agones.dev/agones/pkg/sdk"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/msto63/agones-sdk-go/pkg/core/logging"
)

// gameServerFile is the subset of a GameServer resource the local sidecar reads
type gameServerFile struct {
	Metadata struct {
		Name        string            `yaml:"name"`
		Namespace   string            `yaml:"namespace"`
		UID         string            `yaml:"uid"`
		Generation  int64             `yaml:"generation"`
		Labels      map[string]string `yaml:"labels"`
		Annotations map[string]string `yaml:"annotations"`
	} `yaml:"metadata"`
	Spec struct {
		Health struct {
			Disabled            bool  `yaml:"disabled"`
			PeriodSeconds       int32 `yaml:"periodSeconds"`
			FailureThreshold    int32 `yaml:"failureThreshold"`
			InitialDelaySeconds int32 `yaml:"initialDelaySeconds"`
		} `yaml:"health"`
		Players *struct {
			InitialCapacity int64 `yaml:"initialCapacity"`
		} `yaml:"players"`
		Counters map[string]struct {
			Count    int64 `yaml:"count"`
			Capacity int64 `yaml:"capacity"`
		} `yaml:"counters"`
		Lists map[string]struct {
			Capacity int64    `yaml:"capacity"`
			Values   []string `yaml:"values"`
		} `yaml:"lists"`
		SdkServer struct {
			LogLevel string `yaml:"logLevel"`
		} `yaml:"sdkServer"`
	} `yaml:"spec"`
	Status struct {
		State   string `yaml:"state"`
		Address string `yaml:"address"`
		Ports   []struct {
			Name string `yaml:"name"`
			Port int32  `yaml:"port"`
		} `yaml:"ports"`
	} `yaml:"status"`
}

// toProto converts the file into the record served over the SDK
func (f *gameServerFile) toProto() *sdkpb.GameServer {
	gs := &sdkpb.GameServer{
		ObjectMeta: &sdkpb.GameServer_ObjectMeta{
			Name:              f.Metadata.Name,
			Namespace:         f.Metadata.Namespace,
			Uid:               f.Metadata.UID,
			Generation:        f.Metadata.Generation,
			CreationTimestamp: time.Now().Unix(),
			Labels:            f.Metadata.Labels,
			Annotations:       f.Metadata.Annotations,
		},
		Spec: &sdkpb.GameServer_Spec{
			Health: &sdkpb.GameServer_Spec_Health{
				Disabled:            f.Spec.Health.Disabled,
				PeriodSeconds:       f.Spec.Health.PeriodSeconds,
				FailureThreshold:    f.Spec.Health.FailureThreshold,
				InitialDelaySeconds: f.Spec.Health.InitialDelaySeconds,
			},
		},
		Status: &sdkpb.GameServer_Status{
			State:   f.Status.State,
			Address: f.Status.Address,
			Players: &sdkpb.GameServer_Status_PlayerStatus{},
		},
	}

	if gs.ObjectMeta.Uid == "" {
		gs.ObjectMeta.Uid = uuid.NewString()
	}
	if gs.Status.State == "" {
		gs.Status.State = StateScheduled
	}
	if gs.Status.Address == "" {
		gs.Status.Address = "127.0.0.1"
	}
	for _, p := range f.Status.Ports {
		gs.Status.Ports = append(gs.Status.Ports, &sdkpb.GameServer_Status_Port{Name: p.Name, Port: p.Port})
	}
	if f.Spec.Players != nil {
		gs.Status.Players.Capacity = f.Spec.Players.InitialCapacity
	}
	if len(f.Spec.Counters) > 0 {
		gs.Status.Counters = make(map[string]*sdkpb.GameServer_Status_CounterStatus, len(f.Spec.Counters))
		for name, c := range f.Spec.Counters {
			gs.Status.Counters[name] = &sdkpb.GameServer_Status_CounterStatus{Count: c.Count, Capacity: c.Capacity}
		}
	}
	if len(f.Spec.Lists) > 0 {
		gs.Status.Lists = make(map[string]*sdkpb.GameServer_Status_ListStatus, len(f.Spec.Lists))
		for name, l := range f.Spec.Lists {
			gs.Status.Lists[name] = &sdkpb.GameServer_Status_ListStatus{Capacity: l.Capacity, Values: l.Values}
		}
	}
	return gs
}

// parseGameServerFile decodes a YAML GameServer resource
func parseGameServerFile(data []byte) (*gameServerFile, error) {
	var f gameServerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "could not parse GameServer file")
	}
	return &f, nil
}

// loadFile replaces the record with the file's content
func (s *Service) loadFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from local configuration
	if err != nil {
		return errors.Wrapf(err, "could not read GameServer file %s", path)
	}
	f, err := parseGameServerFile(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.gs = f.toProto()
	s.ensureStatus()
	s.mu.Unlock()

	if lvl := f.Spec.SdkServer.LogLevel; lvl != "" {
		s.logger.Logger.SetLevel(logging.ParseLevel(lvl))
	}
	s.logger.Info("loaded GameServer file", "file", path)
	return nil
}

// watchFile reloads the record on every write to path. The directory is
// watched so editors that replace the file are picked up too.
func (s *Service) watchFile(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "could not create file watcher")
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return errors.Wrapf(err, "could not watch %s", path)
	}
	s.watcher = watcher

	target := filepath.Clean(path)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.loadFile(path); err != nil {
					s.logger.Error("error reloading GameServer file", "error", err)
					continue
				}
				s.notify()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("file watcher error", "error", err)
			}
		}
	}()
	return nil
}
