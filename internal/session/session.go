// Package session wires one project's engine state into an explicit
// context object: the pipeline, the duplicate ledger, the entity
// coordinators, the local cache, and the notification hub. Commands
// construct a session, act through it, and tear it down; no engine
// state is ambient.
package session

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/seibert-lab/cura/internal/cache"
	"github.com/seibert-lab/cura/internal/config"
	"github.com/seibert-lab/cura/internal/dupe"
	"github.com/seibert-lab/cura/internal/entity"
	"github.com/seibert-lab/cura/internal/ledger"
	"github.com/seibert-lab/cura/internal/notify"
	"github.com/seibert-lab/cura/internal/pipeline"
	"github.com/seibert-lab/cura/internal/remote"
	"github.com/seibert-lab/cura/internal/study"
	"github.com/seibert-lab/cura/internal/syncer"
)

// Session holds everything one project invocation needs. Create with
// Open, persist mutations with Save, release with Close.
type Session struct {
	Config *config.Config
	Hub    *notify.Hub
	Logger *zap.Logger

	Pipeline *pipeline.Pipeline
	Ledger   *ledger.Ledger
	Cache    *cache.Cache

	Client        *remote.Client
	Invalidations *syncer.Invalidations
	Studies       *syncer.Coordinator[study.Study]
	Annotations   *syncer.Coordinator[study.Annotation]

	studyStores      map[string]*entity.Store[study.Study]
	annotationStores map[string]*entity.Store[study.Annotation]
}

// Open loads the project rooted at or above dir and rebuilds its
// persisted engine state.
func Open(dir string, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	root, err := config.FindProject(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	hub := notify.NewHub()

	p, err := loadBoard(root, cfg, hub)
	if err != nil {
		return nil, err
	}
	l, err := loadCases(root, hub, logger)
	if err != nil {
		return nil, err
	}

	db, err := cache.Open(config.CachePath(root))
	if err != nil {
		return nil, err
	}

	var clientOpts []remote.ClientOption
	clientOpts = append(clientOpts, remote.WithLogger(logger))
	if key := config.GetAPIKey(); key != "" {
		clientOpts = append(clientOpts, remote.WithAPIKey(key))
	}
	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = config.GetAPIBaseURL()
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, remote.WithBaseURL(baseURL))
	}
	client := remote.NewClient(clientOpts...)

	inv := syncer.NewInvalidations()
	s := &Session{
		Config:        cfg,
		Hub:           hub,
		Logger:        logger,
		Pipeline:      p,
		Ledger:        l,
		Cache:         db,
		Client:        client,
		Invalidations: inv,
		Studies: syncer.New[study.Study](
			remote.NewEntityClient[study.Study](client, remote.KindStudy),
			string(remote.KindStudy), inv, hub, logger),
		Annotations: syncer.New[study.Annotation](
			remote.NewEntityClient[study.Annotation](client, remote.KindAnnotation),
			string(remote.KindAnnotation), inv, hub, logger),
		studyStores:      make(map[string]*entity.Store[study.Study]),
		annotationStores: make(map[string]*entity.Store[study.Annotation]),
	}
	return s, nil
}

// StudyStore returns the store for one study, creating it on first
// use. Stores live for the session.
func (s *Session) StudyStore(id string) *entity.Store[study.Study] {
	st, ok := s.studyStores[id]
	if !ok {
		st = entity.NewStore[study.Study]()
		s.studyStores[id] = st
	}
	return st
}

// AnnotationStore returns the store for one annotation, creating it on
// first use.
func (s *Session) AnnotationStore(id string) *entity.Store[study.Annotation] {
	st, ok := s.annotationStores[id]
	if !ok {
		st = entity.NewStore[study.Annotation]()
		s.annotationStores[id] = st
	}
	return st
}

// ResetLedger replaces the tracked duplicate cases, typically after a
// fresh import batch has been matched.
func (s *Session) ResetLedger(cases []dupe.Case) {
	s.Ledger = ledger.New(cases, s.Hub, s.Logger)
}

// Save persists the board and the duplicate cases under .cura/.
func (s *Session) Save() error {
	root := s.Config.ProjectDir
	if err := writeJSON(config.BoardPath(root), s.Pipeline.State()); err != nil {
		return fmt.Errorf("saving board: %w", err)
	}
	if err := writeJSON(config.CasesPath(root), s.Ledger.Cases()); err != nil {
		return fmt.Errorf("saving duplicate cases: %w", err)
	}
	return nil
}

// Close releases the session's resources. Engine state not saved
// beforehand is discarded.
func (s *Session) Close() error {
	return s.Cache.Close()
}

func loadBoard(root string, cfg *config.Config, hub *notify.Hub) (*pipeline.Pipeline, error) {
	data, err := os.ReadFile(config.BoardPath(root))
	if os.IsNotExist(err) {
		return pipeline.New(cfg.Columns, hub), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading board: %w", err)
	}

	var st pipeline.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing board: %w", err)
	}
	return pipeline.Restore(st, hub)
}

func loadCases(root string, hub *notify.Hub, logger *zap.Logger) (*ledger.Ledger, error) {
	data, err := os.ReadFile(config.CasesPath(root))
	if os.IsNotExist(err) {
		return ledger.New(nil, hub, logger), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading duplicate cases: %w", err)
	}

	var cases []dupe.Case
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parsing duplicate cases: %w", err)
	}
	return ledger.New(cases, hub, logger), nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
