// Package plcsim simulates controllers for local runs and tests: a Modbus
// TCP server exposing a counter block as holding registers, and an
// in-memory plc.Client.
package plcsim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
)

const (
	functionReadHoldingRegs     = 0x03
	functionWriteSingleRegister = 0x06
	functionWriteMultipleRegs   = 0x10

	exceptionIllegalFunction = 0x01
	exceptionIllegalDataAddr = 0x02
	exceptionIllegalDataVal  = 0x03

	registerCount = 65536
)

var (
	errOutOfRange    = errors.New("out of range")
	errInvalidQty    = errors.New("invalid quantity")
	errInvalidPDULen = errors.New("invalid pdu length")
)

// Server is a minimal Modbus TCP server holding one register table.
type Server struct {
	listener  net.Listener
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
	logger    *log.Logger

	mu        sync.RWMutex
	registers []uint16
}

// NewServer constructs a server with a zeroed register table. logger may
// be nil.
func NewServer(logger *log.Logger) *Server {
	return &Server{
		registers: make([]uint16, registerCount),
		quit:      make(chan struct{}),
		logger:    logger,
	}
}

// Listen starts accepting connections on address (":0" picks a free port).
func (s *Server) Listen(address string) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	s.listener = l

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr is the bound listener address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	header := make([]byte, 7)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}

		// length counts the unit id already read with the header
		length := binary.BigEndian.Uint16(header[4:6])
		if length == 0 {
			return
		}
		if length == 1 {
			continue
		}

		pdu := make([]byte, int(length-1))
		if _, err := io.ReadFull(conn, pdu); err != nil {
			return
		}

		response := s.handlePDU(pdu)
		binary.BigEndian.PutUint16(header[4:6], uint16(len(response)+1))

		if _, err := conn.Write(append(header, response...)); err != nil {
			return
		}
	}
}

func (s *Server) handlePDU(pdu []byte) []byte {
	function := pdu[0]
	switch function {
	case functionReadHoldingRegs:
		data, err := s.readRegisters(pdu)
		if err != nil {
			return exceptionResponse(function, errToCode(err))
		}
		return append([]byte{function, byte(len(data))}, data...)
	case functionWriteSingleRegister:
		if len(pdu) < 5 {
			return exceptionResponse(function, errToCode(errInvalidPDULen))
		}
		addr := binary.BigEndian.Uint16(pdu[1:3])
		s.mu.Lock()
		s.registers[addr] = binary.BigEndian.Uint16(pdu[3:5])
		s.mu.Unlock()
		s.logf("write register %d", addr)
		return append([]byte{}, pdu[:5]...)
	case functionWriteMultipleRegs:
		if err := s.writeRegisters(pdu); err != nil {
			return exceptionResponse(function, errToCode(err))
		}
		return append([]byte{}, pdu[:5]...)
	default:
		return exceptionResponse(function, exceptionIllegalFunction)
	}
}

func (s *Server) readRegisters(pdu []byte) ([]byte, error) {
	if len(pdu) < 5 {
		return nil, errInvalidPDULen
	}
	start := binary.BigEndian.Uint16(pdu[1:3])
	quantity := binary.BigEndian.Uint16(pdu[3:5])
	if quantity == 0 || quantity > 125 {
		return nil, errInvalidQty
	}
	if int(start)+int(quantity) > registerCount {
		return nil, errOutOfRange
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]byte, quantity*2)
	for i := 0; i < int(quantity); i++ {
		binary.BigEndian.PutUint16(result[i*2:(i+1)*2], s.registers[int(start)+i])
	}
	return result, nil
}

func (s *Server) writeRegisters(pdu []byte) error {
	if len(pdu) < 6 {
		return errInvalidPDULen
	}
	start := binary.BigEndian.Uint16(pdu[1:3])
	quantity := binary.BigEndian.Uint16(pdu[3:5])
	byteCount := int(pdu[5])
	if quantity == 0 || quantity > 123 || byteCount != int(quantity)*2 {
		return errInvalidQty
	}
	if len(pdu) < 6+byteCount {
		return errInvalidPDULen
	}
	if int(start)+int(quantity) > registerCount {
		return errOutOfRange
	}

	s.mu.Lock()
	for i := 0; i < int(quantity); i++ {
		s.registers[int(start)+i] = binary.BigEndian.Uint16(pdu[6+i*2 : 8+i*2])
	}
	s.mu.Unlock()
	s.logf("write registers %d[%d]", start, quantity)
	return nil
}

func exceptionResponse(function byte, code byte) []byte {
	return []byte{function | 0x80, code}
}

func errToCode(err error) byte {
	switch {
	case errors.Is(err, errOutOfRange):
		return exceptionIllegalDataAddr
	case errors.Is(err, errInvalidQty), errors.Is(err, errInvalidPDULen):
		return exceptionIllegalDataVal
	default:
		return exceptionIllegalFunction
	}
}

// Close stops the server and waits for all goroutines to exit.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
		if s.listener != nil {
			s.listener.Close()
		}
	})
	s.wg.Wait()
}

// SetCounter stores a seconds counter at a byte offset of the mapped block.
func (s *Server) SetCounter(offset int, seconds int32) error {
	if offset < 0 || offset%2 != 0 || offset/2+1 >= registerCount {
		return fmt.Errorf("offset %d out of range", offset)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registers[offset/2] = uint16(uint32(seconds) >> 16)
	s.registers[offset/2+1] = uint16(uint32(seconds))
	return nil
}

// Counter returns the seconds counter at a byte offset.
func (s *Server) Counter(offset int) (int32, error) {
	if offset < 0 || offset%2 != 0 || offset/2+1 >= registerCount {
		return 0, fmt.Errorf("offset %d out of range", offset)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int32(uint32(s.registers[offset/2])<<16 | uint32(s.registers[offset/2+1])), nil
}

func (s *Server) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
