// Package editor reads and writes maintenance counters on behalf of the
// front ends. Operations run one at a time, each on a fresh connection.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"rh-editor/internal/hours"
	"rh-editor/internal/model"
	"rh-editor/internal/plc"
	"rh-editor/internal/registry"
)

// Journal records write attempts.
type Journal interface {
	SaveWrite(ctx context.Context, rec *model.WriteRecord) error
}

// Reading is one counter value read from a controller.
type Reading struct {
	Equipment model.Equipment
	Seconds   int32
	Hours     float64
	At        time.Time
}

func (r Reading) HoursText() string { return hours.Format(r.Hours) }

// WriteResult describes a completed write. Confirmed is nil when the
// read-back failed; ConfirmErr then holds the reason.
type WriteResult struct {
	Equipment  model.Equipment
	Hours      float64
	Seconds    int64
	Confirmed  *Reading
	ConfirmErr error
}

type Options struct {
	Dialer   plc.Dialer
	Journal  Journal
	Logger   *log.Logger
	CacheTTL time.Duration
}

type Service struct {
	equips   *registry.Equipment
	ctrls    *registry.Controllers
	dialer   plc.Dialer
	journal  Journal
	logger   *log.Logger
	readings *cache.Cache

	mu sync.Mutex
}

func New(equips *registry.Equipment, ctrls *registry.Controllers, opts Options) *Service {
	if equips == nil {
		equips = registry.NewEquipment(nil)
	}
	if ctrls == nil {
		ctrls = registry.NewControllers(nil)
	}
	if opts.Dialer == nil {
		opts.Dialer = plc.DefaultDialer
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "editor ", log.LstdFlags)
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	return &Service{
		equips:   equips,
		ctrls:    ctrls,
		dialer:   opts.Dialer,
		journal:  opts.Journal,
		logger:   opts.Logger,
		readings: cache.New(opts.CacheTTL, 2*opts.CacheTTL),
	}
}

func (s *Service) Equipment() *registry.Equipment     { return s.equips }
func (s *Service) Controllers() *registry.Controllers { return s.ctrls }

// Writable reports whether both registries were loaded with content.
func (s *Service) Writable() bool {
	return s.equips.Len() > 0 && s.ctrls.Len() > 0
}

// LastReading returns the most recent reading of name, if still cached.
func (s *Service) LastReading(name string) (Reading, bool) {
	v, ok := s.readings.Get(name)
	if !ok {
		return Reading{}, false
	}
	return v.(Reading), true
}

func (s *Service) resolve(name string) (model.Equipment, model.Controller, error) {
	eq, ok := s.equips.Lookup(name)
	if !ok {
		return eq, model.Controller{}, fmt.Errorf("%w: %s", ErrUnknownEquipment, name)
	}
	ctrl, ok := s.ctrls.Lookup(eq.Controller)
	if !ok || ctrl.Address == "" {
		return eq, ctrl, fmt.Errorf("%w: %q in controller file", ErrControllerNotFound, eq.Controller)
	}
	return eq, ctrl, nil
}

// connect opens a fresh client. On error the client is already closed.
func (s *Service) connect(ctx context.Context, ctrl model.Controller) (plc.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.logger.Printf("connecting to PLC %s (rack=%d, slot=%d)...", ctrl.Address, ctrl.Rack, ctrl.Slot)
	client, err := s.dialer.NewClient(ctrl)
	if err != nil {
		return nil, &ConnectionError{Controller: ctrl.Name, Address: ctrl.Address, Err: err}
	}
	if err := client.Connect(ctx); err != nil {
		_ = client.Disconnect()
		return nil, &ConnectionError{Controller: ctrl.Name, Address: ctrl.Address, Err: err}
	}
	if !client.IsConnected() {
		_ = client.Disconnect()
		return nil, &ConnectionError{Controller: ctrl.Name, Address: ctrl.Address}
	}
	return client, nil
}

func (s *Service) disconnect(client plc.Client) {
	if err := client.Disconnect(); err != nil {
		s.logger.Printf("disconnect: %v", err)
		return
	}
	s.logger.Printf("disconnected from PLC")
}

// Read fetches the counter of the named equipment.
func (s *Service) Read(ctx context.Context, name string) (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.read(ctx, name)
	if err != nil {
		s.logger.Printf("ERROR reading %s: %v", name, err)
	}
	return r, err
}

func (s *Service) read(ctx context.Context, name string) (Reading, error) {
	eq, ctrl, err := s.resolve(name)
	if err != nil {
		return Reading{}, err
	}
	client, err := s.connect(ctx, ctrl)
	if err != nil {
		return Reading{}, err
	}
	defer s.disconnect(client)

	s.logger.Printf("reading %s...", eq.Address())
	data, err := client.ReadBlock(eq.DBNumber, eq.DBOffset, plc.CounterSize)
	if err != nil {
		return Reading{}, &ProtocolError{Op: "read", Address: eq.Address(), Err: err}
	}
	v, err := plc.DecodeCounter(data)
	if err != nil {
		return Reading{}, &ProtocolError{Op: "read", Address: eq.Address(), Err: err}
	}
	r := Reading{Equipment: eq, Seconds: v, Hours: hours.SecondsToHours(int64(v)), At: time.Now()}
	s.readings.Set(eq.Name, r, cache.DefaultExpiration)
	s.logger.Printf("read %d s (%s h) from %s", v, r.HoursText(), eq.Name)
	return r, nil
}

// Write validates hoursText, writes the converted seconds and reads the
// counter back. The read-back is skipped when the write did not complete.
func (s *Service) Write(ctx context.Context, name, hoursText string) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.write(ctx, name, hoursText)
	if err != nil {
		s.logger.Printf("ERROR writing %s: %v", name, err)
	}
	return res, err
}

func (s *Service) write(ctx context.Context, name, hoursText string) (WriteResult, error) {
	eq, ok := s.equips.Lookup(name)
	if !ok {
		return WriteResult{}, fmt.Errorf("%w: %s", ErrUnknownEquipment, name)
	}
	h, err := hours.Parse(hoursText)
	if err != nil {
		return WriteResult{}, &ValidationError{Input: hoursText, Err: err}
	}
	res := WriteResult{Equipment: eq, Hours: h, Seconds: hours.HoursToSeconds(h)}
	s.logger.Printf("prepared write: %s h = %d s", hours.Format(h), res.Seconds)

	_, ctrl, err := s.resolve(name)
	if err != nil {
		return res, err
	}
	rec := &model.WriteRecord{
		Equipment:  eq.Name,
		Controller: ctrl.Name,
		Address:    eq.Address(),
		DBNumber:   eq.DBNumber,
		DBOffset:   eq.DBOffset,
		Hours:      h,
		Seconds:    res.Seconds,
		Status:     model.WriteFailed,
	}
	defer s.record(rec)

	if err := s.writeCounter(ctx, eq, ctrl, int32(res.Seconds)); err != nil {
		rec.Error = err.Error()
		return res, err
	}
	s.logger.Printf("SUCCESS: wrote %d s (%s h) to %s", res.Seconds, hours.Format(h), eq.Name)

	confirmed, err := s.read(ctx, name)
	if err != nil {
		s.logger.Printf("ERROR confirming %s: %v", name, err)
		res.ConfirmErr = err
		rec.Status = model.WriteUnconfirmed
		rec.Error = err.Error()
		return res, nil
	}
	res.Confirmed = &confirmed
	cs := int64(confirmed.Seconds)
	rec.ConfirmedSeconds = &cs
	rec.Status = model.WriteOK
	if cs != res.Seconds {
		rec.Status = model.WriteUnconfirmed
		res.ConfirmErr = fmt.Errorf("read back %d s, expected %d s", cs, res.Seconds)
		s.logger.Printf("WARNING: %s %v", name, res.ConfirmErr)
	}
	return res, nil
}

func (s *Service) writeCounter(ctx context.Context, eq model.Equipment, ctrl model.Controller, seconds int32) error {
	client, err := s.connect(ctx, ctrl)
	if err != nil {
		return err
	}
	defer s.disconnect(client)

	s.logger.Printf("writing %s...", eq.Address())
	if err := client.WriteBlock(eq.DBNumber, eq.DBOffset, plc.EncodeCounter(seconds)); err != nil {
		return &ProtocolError{Op: "write", Address: eq.Address(), Err: err}
	}
	s.readings.Delete(eq.Name)
	return nil
}

func (s *Service) record(rec *model.WriteRecord) {
	if s.journal == nil {
		return
	}
	// recorded even when the caller's context is done
	if err := s.journal.SaveWrite(context.Background(), rec); err != nil {
		s.logger.Printf("journal: %v", err)
	}
}

// IsValidation reports whether err was raised before any network call.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
