// Package server exposes the printer pool over HTTP, one endpoint per
// printer operation.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"escpos-print/internal/discovery"
	"escpos-print/internal/layout"
	"escpos-print/internal/printer"
)

// Scanner finds nearby Bluetooth printers
type Scanner interface {
	Scan(ctx context.Context, timeout time.Duration, found func(discovery.Device)) ([]discovery.Device, error)
	StopScan() bool
}

// Options tune request handling
type Options struct {
	DialTimeout time.Duration // bound for POST /connect
	ScanTimeout time.Duration // default for POST /scan
	MaxPollWait time.Duration // cap of the wait parameter of GET /events
}

// Server routes HTTP requests to a printer pool
type Server struct {
	pool    *printer.Pool
	scanner Scanner
	events  *EventLog
	log     *zap.Logger
	opts    Options
	engine  *gin.Engine
}

func New(pool *printer.Pool, scanner Scanner, events *EventLog, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 15 * time.Second
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = discovery.DefaultScanTimeout
	}
	if opts.MaxPollWait <= 0 {
		opts.MaxPollWait = 30 * time.Second
	}

	s := &Server{
		pool:    pool,
		scanner: scanner,
		events:  events,
		log:     log,
		opts:    opts,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	// Serial device addresses such as /dev/rfcomm0 arrive escaped as %2F
	r.UseRawPath = true
	r.Use(RequestID(), Logger(s.log), Recovery(s.log))

	r.GET("/constants", s.constants)
	r.GET("/printers", s.printers)
	r.GET("/events", s.pollEvents)
	r.POST("/scan", s.scan)
	r.POST("/scan/stop", s.stopScan)
	r.GET("/devices/paired", s.paired)
	r.GET("/devices/serial", s.serialPorts)

	p := r.Group("/printers/:address")
	{
		p.POST("/connect", s.connect)
		p.POST("/disconnect", s.disconnect)
		p.POST("/print", s.print)
		p.POST("/println", s.printLn)
		p.POST("/barcode", s.printBarcode)
		p.POST("/qrcode", s.printQRCode)
		p.POST("/image", s.printImage)
		p.POST("/design", s.printDesign)
		p.POST("/sample", s.simple(s.pool.PrintSample))
		p.POST("/write", s.write)
		p.POST("/charcode", s.setCharCode)
		p.POST("/density", s.setDensity)
		p.POST("/size", s.setSize)
		p.POST("/cut-part", s.simple(s.pool.CutPart))
		p.POST("/cut-full", s.simple(s.pool.CutFull))
		p.POST("/line-break", s.simple(s.pool.LineBreak))
		p.POST("/beep", s.simple(s.pool.Beep))
		p.POST("/drawer/pin2", s.simple(s.pool.KickCashDrawerPin2))
		p.POST("/drawer/pin5", s.simple(s.pool.KickCashDrawerPin5))
	}
	return r
}

func (s *Server) constants(c *gin.Context) {
	c.JSON(http.StatusOK, printer.Constants())
}

func (s *Server) printers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"printers": s.pool.Addresses()})
}

func (s *Server) pollEvents(c *gin.Context) {
	since, _ := strconv.ParseUint(c.Query("since"), 10, 64)
	wait, err := time.ParseDuration(c.DefaultQuery("wait", "0s"))
	if err != nil {
		respondError(c, printer.ErrMissingArguments)
		return
	}
	wait = min(wait, s.opts.MaxPollWait)

	events := s.events.Since(c.Request.Context(), since, wait)
	if events == nil {
		events = []Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) scan(c *gin.Context) {
	timeout := s.opts.ScanTimeout
	if q := c.Query("timeout"); q != "" {
		d, err := time.ParseDuration(q)
		if err != nil {
			respondError(c, printer.ErrMissingArguments)
			return
		}
		timeout = d
	}

	devices, err := s.scanner.Scan(c.Request.Context(), timeout, func(d discovery.Device) {
		s.pool.Emit(printer.Event{
			State:      printer.EventDeviceFound,
			DeviceInfo: printer.DeviceInfo{Name: d.Name, MACAddress: d.Address},
		})
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

func (s *Server) stopScan(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stopped": s.scanner.StopScan()})
}

func (s *Server) paired(c *gin.Context) {
	devices, err := discovery.Paired(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

func (s *Server) serialPorts(c *gin.Context) {
	ports, err := discovery.SerialPorts()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ports": ports})
}

type connectRequest struct {
	Type string `json:"type"`
	Port int    `json:"port"`
}

func (s *Server) connect(c *gin.Context) {
	var req connectRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.DialTimeout)
	defer cancel()

	if err := s.pool.Connect(ctx, c.Param("address"), req.Port, req.Type); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

func (s *Server) disconnect(c *gin.Context) {
	if err := s.pool.Disconnect(c.Param("address")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}

type textRequest struct {
	Text string `json:"text"`
}

func (s *Server) print(c *gin.Context) {
	var req textRequest
	if bind(c, &req) {
		reply(c, s.pool.Print(c.Param("address"), req.Text))
	}
}

func (s *Server) printLn(c *gin.Context) {
	var req textRequest
	if bind(c, &req) {
		reply(c, s.pool.PrintLn(c.Param("address"), req.Text))
	}
}

func (s *Server) printDesign(c *gin.Context) {
	var req textRequest
	if bind(c, &req) {
		reply(c, s.pool.PrintDesign(c.Param("address"), req.Text))
	}
}

type barcodeRequest struct {
	Code     string `json:"code"`
	Type     string `json:"type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Position string `json:"position"`
	Font     string `json:"font"`
}

func (s *Server) printBarcode(c *gin.Context) {
	req := barcodeRequest{Width: 3, Height: 100}
	if bind(c, &req) {
		reply(c, s.pool.PrintBarcode(c.Param("address"), req.Code, req.Type, req.Width, req.Height, req.Position, req.Font))
	}
}

type qrRequest struct {
	Value string `json:"value"`
	Size  int    `json:"size"`
}

func (s *Server) printQRCode(c *gin.Context) {
	req := qrRequest{Size: 200}
	if bind(c, &req) {
		reply(c, s.pool.PrintQRCode(c.Param("address"), req.Value, req.Size))
	}
}

type imageRequest struct {
	Path      string `json:"path"`
	MaxHeight int    `json:"maxHeight"`
}

func (s *Server) printImage(c *gin.Context) {
	var req imageRequest
	if !bind(c, &req) {
		return
	}
	if req.MaxHeight > 0 {
		reply(c, s.pool.PrintImageFit(c.Param("address"), req.Path, req.MaxHeight))
		return
	}
	reply(c, s.pool.PrintImage(c.Param("address"), req.Path))
}

type writeRequest struct {
	Data []byte `json:"data"` // base64 in JSON
}

func (s *Server) write(c *gin.Context) {
	var req writeRequest
	if bind(c, &req) {
		reply(c, s.pool.Write(c.Param("address"), req.Data))
	}
}

type charCodeRequest struct {
	Code string `json:"code"`
}

func (s *Server) setCharCode(c *gin.Context) {
	var req charCodeRequest
	if bind(c, &req) {
		reply(c, s.pool.SetCharCode(c.Param("address"), req.Code))
	}
}

type densityRequest struct {
	Level int `json:"level"`
}

func (s *Server) setDensity(c *gin.Context) {
	var req densityRequest
	if bind(c, &req) {
		reply(c, s.pool.SetTextDensity(c.Param("address"), req.Level))
	}
}

type sizeRequest struct {
	Size          string `json:"size"`
	CharsOnLine   int    `json:"charsOnLine"`
	PrintingWidth int    `json:"printingWidth"`
}

func (s *Server) setSize(c *gin.Context) {
	var req sizeRequest
	if !bind(c, &req) {
		return
	}
	if req.Size == "" && req.CharsOnLine == 0 && req.PrintingWidth == 0 {
		respondError(c, printer.ErrMissingArguments)
		return
	}

	address := c.Param("address")
	if req.Size != "" {
		if err := s.pool.SetPrintingSize(address, layout.ParsePaperSize(req.Size)); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.CharsOnLine != 0 {
		if err := s.pool.SetCharsOnLine(address, req.CharsOnLine); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.PrintingWidth != 0 {
		if err := s.pool.SetPrintingWidth(address, req.PrintingWidth); err != nil {
			respondError(c, err)
			return
		}
	}
	respondOK(c)
}

// simple adapts an operation that only takes the printer address
func (s *Server) simple(op func(address string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		reply(c, op(c.Param("address")))
	}
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, fmt.Errorf("%w: invalid request body: %w", printer.ErrMissingArguments, err))
		return false
	}
	return true
}

func reply(c *gin.Context, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c)
}
