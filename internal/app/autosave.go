package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/ragcore/internal/logger"
)

// saveTimeout bounds one scheduled save.
const saveTimeout = 2 * time.Minute

// IndexSaver persists the index.
type IndexSaver interface {
	SaveIndex(ctx context.Context) error
}

// Autosaver saves the index on a cron schedule in long-running modes.
type Autosaver struct {
	saver IndexSaver
	cron  *cron.Cron
}

// NewAutosaver creates an idle autosaver.
func NewAutosaver(saver IndexSaver) *Autosaver {
	return &Autosaver{
		saver: saver,
		cron:  cron.New(),
	}
}

// Start schedules saves with a standard five-field spec or a descriptor
// such as "@every 10m".
func (s *Autosaver) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return err
	}
	s.cron.Start()
	logger.Debug("Autosave scheduled: %s", spec)
	return nil
}

// Stop waits for a running save to finish.
func (s *Autosaver) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Autosaver) run() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := s.saver.SaveIndex(ctx); err != nil {
		logger.Error(err, "Scheduled index save failed")
		return
	}
	logger.Debug("Scheduled index save complete")
}
