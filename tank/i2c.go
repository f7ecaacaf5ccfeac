package tank

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/exp/io/i2c"
)

type I2cBus interface {
	I2cWrite(addr byte, data ...byte) error
	I2cRead(addr byte, data []byte) error
}

// AsyncI2cBus can additionally queue writes without waiting for them.
type AsyncI2cBus interface {
	I2cBus
	QueueWrite(addr byte, data ...byte)
}

// devfsI2cBus accesses I2C devices through a Linux i2c-dev device file.
// Every slave address gets its own file handle, opened on first use.
type devfsI2cBus struct {
	Dev string

	lock    sync.Mutex
	devices map[byte]*i2c.Device
}

func (b *devfsI2cBus) device(addr byte) (*i2c.Device, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if dev, ok := b.devices[addr]; ok {
		return dev, nil
	}
	dev, err := i2c.Open(&i2c.Devfs{Dev: b.Dev}, int(addr))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open I2C device %02x on %v", addr, b.Dev)
	}
	if b.devices == nil {
		b.devices = make(map[byte]*i2c.Device)
	}
	b.devices[addr] = dev
	return dev, nil
}

func (b *devfsI2cBus) I2cWrite(addr byte, data ...byte) error {
	dev, err := b.device(addr)
	if err != nil {
		return err
	}
	return dev.Write(data)
}

func (b *devfsI2cBus) I2cRead(addr byte, data []byte) error {
	dev, err := b.device(addr)
	if err != nil {
		return err
	}
	return dev.Read(data)
}

func (b *devfsI2cBus) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	var err error
	for addr, dev := range b.devices {
		err = multierr.Append(err, dev.Close())
		delete(b.devices, addr)
	}
	return err
}

const (
	I2cWrite = iota + 1
	I2cRead
)

type I2cRequest struct {
	Type  int
	Addr  byte
	Data  []byte
	Error error

	// Queued requests are not waited for, errors are only logged
	fireAndForget bool
	done          chan struct{}
}

func (r *I2cRequest) Wait() {
	<-r.done
}

// sequencedI2cBus serializes all requests to the underlying bus in one goroutine,
// so that callers from different goroutines never interleave their transfers.
type sequencedI2cBus struct {
	bus     I2cBus
	queue   chan *I2cRequest
	stopped chan struct{}
}

func newSequencedI2cBus(bus I2cBus, queueSize int) *sequencedI2cBus {
	s := &sequencedI2cBus{
		bus:     bus,
		queue:   make(chan *I2cRequest, queueSize),
		stopped: make(chan struct{}),
	}
	go s.handleI2cRequests()
	return s
}

func (s *sequencedI2cBus) handleI2cRequests() {
	defer close(s.stopped)
	for req := range s.queue {
		switch req.Type {
		case I2cWrite:
			req.Error = s.bus.I2cWrite(req.Addr, req.Data...)
		case I2cRead:
			req.Error = s.bus.I2cRead(req.Addr, req.Data)
		default:
			req.Error = fmt.Errorf("Invalid I2C request type %v", req.Type)
		}
		if req.fireAndForget && req.Error != nil {
			log.Errorf("Queued I2C request to %02x failed: %v", req.Addr, req.Error)
		}
		close(req.done)
	}
}

func (s *sequencedI2cBus) queueRequest(req *I2cRequest) {
	req.done = make(chan struct{})
	s.queue <- req
}

func (s *sequencedI2cBus) request(req *I2cRequest) error {
	s.queueRequest(req)
	req.Wait()
	return req.Error
}

func (s *sequencedI2cBus) I2cWrite(addr byte, data ...byte) error {
	return s.request(&I2cRequest{Type: I2cWrite, Addr: addr, Data: data})
}

func (s *sequencedI2cBus) I2cRead(addr byte, data []byte) error {
	return s.request(&I2cRequest{Type: I2cRead, Addr: addr, Data: data})
}

// QueueWrite returns without waiting for the transfer. Errors are logged by the sequencer.
func (s *sequencedI2cBus) QueueWrite(addr byte, data ...byte) {
	s.queueRequest(&I2cRequest{Type: I2cWrite, Addr: addr, Data: data, fireAndForget: true})
}

// Close stops the sequencer after all queued requests are handled.
func (s *sequencedI2cBus) Close() {
	close(s.queue)
	<-s.stopped
}

// dummyI2cBus only logs and records the writes
type dummyI2cBus struct {
	lock   sync.Mutex
	writes [][]byte
}

func (b *dummyI2cBus) I2cWrite(addr byte, data ...byte) error {
	log.Debugf("Dummy I2C write to %02x: %x", addr, data)
	b.lock.Lock()
	defer b.lock.Unlock()
	b.writes = append(b.writes, append([]byte{addr}, data...))
	return nil
}

func (b *dummyI2cBus) I2cRead(addr byte, data []byte) error {
	log.Debugf("Dummy I2C read from %02x (%v bytes)", addr, len(data))
	for i := range data {
		data[i] = 0
	}
	return nil
}

func (b *dummyI2cBus) Writes() [][]byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([][]byte(nil), b.writes...)
}
