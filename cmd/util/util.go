package util

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/gistsync/pkg/config"
	"github.com/sidkik/gistsync/pkg/errors"
	"github.com/sidkik/gistsync/pkg/gist"
	"github.com/sidkik/gistsync/pkg/github"
)

// Mocked for unit testing.
var (
	exit             = os.Exit
	stderr io.Writer = os.Stderr
)

// HandleFatalError prints the error and exits. Friendly errors are printed
// as-is, and other errors are logged along with their context.
func HandleFatalError(err error) {
	if friendly, ok := errors.GetFriendlyError(err); ok {
		log.WithError(err).Debug("Fatal error")
		fmt.Fprintln(stderr, friendly.FriendlyMessage())
	} else {
		log.WithError(err).Error("Fatal error")
	}
	exit(1)
}

// HandlePanic logs the stack trace of a panic before re-panicking.
// It should be deferred at the top of main.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).
			Errorf("Unexpected panic: %v", r)
		panic(r)
	}
}

// NewStore returns the gist store described by the user config.
// It's a variable so that commands can be tested against an in-memory
// store.
var NewStore = func(cfg config.User) (gist.Store, error) {
	client, err := github.New(cfg.GithubOptions())
	if err != nil {
		return nil, errors.WithContext(err, "create github client")
	}
	return client, nil
}

// NewSyncer returns a syncer for the gist described by the user config.
func NewSyncer(cfg config.User) (gist.Syncer, gist.Store, error) {
	store, err := NewStore(cfg)
	if err != nil {
		return gist.Syncer{}, nil, err
	}
	return gist.NewSyncer(store, cfg.SyncOptions(), log.StandardLogger()), store, nil
}

// ProgressPrinter prints a message followed by a growing line of dots, to
// show that a slow operation is still running.
type ProgressPrinter struct {
	out   io.Writer
	msg   string
	clock clockwork.Clock

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewProgressPrinter creates a new ProgressPrinter. Call Run in a goroutine
// to start printing.
func NewProgressPrinter(out io.Writer, msg string) *ProgressPrinter {
	return &ProgressPrinter{
		out:   out,
		msg:   msg,
		clock: clockwork.NewRealClock(),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run prints the progress until Stop is called.
func (pp *ProgressPrinter) Run() {
	defer close(pp.done)

	fmt.Fprint(pp.out, pp.msg)
	for {
		select {
		case <-pp.stop:
			fmt.Fprintln(pp.out)
			return
		case <-pp.clock.After(time.Second):
			fmt.Fprint(pp.out, ".")
		}
	}
}

// Stop stops printing, and waits for the final newline to be written.
// It must only be called after Run has been started.
func (pp *ProgressPrinter) Stop() {
	pp.stopOnce.Do(func() { close(pp.stop) })
	<-pp.done
}
