package printer

import (
	"fmt"
	"image"
	"io"
	"sync"

	"go.uber.org/zap"

	"escpos-print/internal/escpos"
	"escpos-print/internal/imaging"
	"escpos-print/internal/layout"
)

// Raster limits. The ESC * header carries the width in 16 bits and every
// image is scaled in memory before it is sent.
const (
	MaxPrintingWidth = 2048
	MaxImageHeight   = 16384
)

// Session is one open connection to a printer together with the layout and
// code page used to render requests for it. All methods are safe for
// concurrent use; writes to the transport are serialized.
type Session struct {
	mu            sync.Mutex
	address       string
	kind          Kind
	transport     Transport
	charsOnLine   int
	printingWidth int
	codePage      CodePage
	density       int
	closed        bool
	log           *zap.Logger

	// pending disconnect, guarded by Pool.mu
	timer *idleTimer
}

// NewSession wraps a connected transport
func NewSession(address string, kind Kind, t Transport, size layout.PaperSize, cp CodePage, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := layout.LayoutFor(size)
	return &Session{
		address:       address,
		kind:          kind,
		transport:     t,
		charsOnLine:   cfg.CharsOnLine,
		printingWidth: cfg.PrintingWidthDots,
		codePage:      cp,
		log:           log.With(zap.String("address", address), zap.String("type", string(kind))),
	}
}

func (s *Session) Address() string { return s.address }
func (s *Session) Kind() Kind       { return s.kind }

// CharsOnLine returns the current text columns
func (s *Session) CharsOnLine() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.charsOnLine
}

// PrintingWidth returns the current raster width in dots
func (s *Session) PrintingWidth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.printingWidth
}

// CharCode returns the name of the active code page
func (s *Session) CharCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codePage.Name
}

// Density returns the last density sent with SetTextDensity
func (s *Session) Density() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.density
}

// send writes p completely. Callers hold s.mu.
func (s *Session) send(p []byte) error {
	if s.closed {
		return fmt.Errorf("%w: %s: %w", ErrIO, s.address, ErrClosed)
	}

	total := len(p)
	for len(p) > 0 {
		n, err := s.transport.Write(p)
		if err != nil {
			return fmt.Errorf("%w: %w: %w", ErrIO, ErrConnectionFailed, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %w: %w", ErrIO, ErrConnectionFailed, io.ErrShortWrite)
		}
		p = p[n:]
	}
	s.log.Debug("sent", zap.Int("bytes", total))
	return nil
}

func (s *Session) sendLocked(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.send(p)
}

// Print sends text encoded with the current code page
func (s *Session) Print(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.codePage.Encode(text)
	if err != nil {
		return err
	}
	return s.send(b)
}

// PrintLn sends text followed by a line feed
func (s *Session) PrintLn(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.codePage.Encode(text)
	if err != nil {
		return err
	}
	return s.send(append(b, escpos.LF))
}

// PrintBarcode prints code as a 1D barcode. width is the module width
// (2-6), height the bar height in dots, position the HRI text placement
// (OFF, ABOVE, BELOW, BOTH) and font the HRI font (A or B).
func (s *Session) PrintBarcode(code, symbology string, width, height int, position, font string) error {
	cmd, err := buildBarcode(code, symbology, width, height, position, font)
	if err != nil {
		return err
	}
	return s.sendLocked(cmd)
}

// PrintQRCode prints value as a centred size x size dot QR code
func (s *Session) PrintQRCode(value string, size int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if size > s.printingWidth {
		return fmt.Errorf("%w: size %d wider than the printable %d dots", ErrQRCode, size, s.printingWidth)
	}
	img, err := qrImage(value, size)
	if err != nil {
		return err
	}
	return s.send(rasterCommand(img, escpos.JustifyCenter))
}

// PrintImage prints the image file at path scaled to the printing width
func (s *Session) PrintImage(path string) error {
	return s.printImage(path, 0)
}

// PrintImageFit prints the image file at path scaled to fit within the
// printing width and maxHeight dots
func (s *Session) PrintImageFit(path string, maxHeight int) error {
	return s.printImage(path, maxHeight)
}

func (s *Session) printImage(path string, maxHeight int) error {
	img, err := imaging.LoadImage(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if b := img.Bounds(); maxHeight <= 0 && b.Dx() > 0 && b.Dy()*s.printingWidth/b.Dx() > MaxImageHeight {
		maxHeight = MaxImageHeight
	}
	if maxHeight > 0 {
		img = imaging.ResizeToFit(img, s.printingWidth, min(maxHeight, MaxImageHeight))
	} else {
		img = imaging.ResizeToWidth(img, s.printingWidth)
	}
	s.log.Debug("printing image",
		zap.String("path", path),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))
	return s.send(rasterCommand(img, escpos.JustifyLeft))
}

// rasterCommand renders img as 24-dot bit image bands
func rasterCommand(img image.Image, justify byte) []byte {
	w := img.Bounds().Dx()
	cmd := escpos.New().
		Justify(justify).
		LineSpacing(escpos.LineSpacingImage)

	data := make([]byte, 0, w*3)
	for _, band := range imaging.RasterBands(img) {
		data = data[:0]
		for _, slice := range band {
			data = append(data, slice[:]...)
		}
		cmd.BitImage24(w, data).LineFeed()
	}

	return cmd.
		LineSpacing(escpos.LineSpacingDefault).
		Justify(escpos.JustifyLeft).
		Bytes()
}

// PrintDesign lays out markup on the current character grid and prints it.
// See layout.ParseDesign for the markup. Nothing is sent when any line
// fails to encode.
func (s *Session) PrintDesign(markup string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := escpos.New()
	for _, line := range layout.ParseDesign(markup, s.charsOnLine) {
		if line.QR != "" {
			img, err := qrImage(line.QR, s.printingWidth/2)
			if err != nil {
				return err
			}
			cmd.Raw(rasterCommand(img, escpos.JustifyCenter))
			continue
		}

		text, err := s.codePage.Encode(line.Text)
		if err != nil {
			return err
		}
		st := line.Style
		cmd.Justify(byte(st.Align)).
			Bold(st.Bold).
			Underline(st.Underline).
			Invert(st.Invert).
			CharSize(st.DoubleWidth, st.DoubleHeight).
			Raw(text).
			LineFeed()
	}

	cmd.Bold(false).
		Underline(false).
		Invert(false).
		CharSize(false, false).
		Justify(escpos.JustifyLeft)
	s.log.Debug("printing design", zap.Int("bytes", cmd.Len()))
	return s.send(cmd.Bytes())
}

const sampleDesign = `
{H1}{C}ESC/POS
{C}Sample receipt
================
Item{<>}Qty    Price
----------------
Coffee{<>}2     7.00
Croissant{<>}1     3.50
----------------
{B}Total{<>}10.50
{U}Thank you for your visit
{QR[https://en.wikipedia.org/wiki/ESC/P]}
`

// PrintSample prints a fixed demo receipt exercising the design markup
func (s *Session) PrintSample() error {
	return s.PrintDesign(sampleDesign)
}

// SetCharsOnLine changes the text columns used by later designs
func (s *Session) SetCharsOnLine(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: chars on line must be positive, got %d", ErrMissingArguments, n)
	}
	s.mu.Lock()
	s.charsOnLine = n
	s.mu.Unlock()
	return nil
}

// SetPrintingWidth changes the raster width used by later images. Widths
// above MaxPrintingWidth are rejected.
func (s *Session) SetPrintingWidth(dots int) error {
	if dots <= 0 || dots > MaxPrintingWidth {
		return fmt.Errorf("%w: printing width must be 1-%d dots, got %d", ErrMissingArguments, MaxPrintingWidth, dots)
	}
	s.mu.Lock()
	s.printingWidth = dots
	s.mu.Unlock()
	return nil
}

// SetPrintingSize applies the geometry of a paper size
func (s *Session) SetPrintingSize(size layout.PaperSize) {
	cfg := layout.LayoutFor(size)
	s.mu.Lock()
	s.charsOnLine = cfg.CharsOnLine
	s.printingWidth = cfg.PrintingWidthDots
	s.mu.Unlock()
}

// SetCharCode switches the code page text is encoded with. Pages with a
// printer table number also switch the printer's table.
func (s *Session) SetCharCode(name string) error {
	cp, err := LookupCodePage(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cp.HasTable {
		if err := s.send(escpos.New().CodePage(cp.Table).Bytes()); err != nil {
			return err
		}
	}
	s.codePage = cp
	return nil
}

// SetTextDensity sets print darkness, clamped to 0-8
func (s *Session) SetTextDensity(level int) error {
	level = max(0, min(level, 8))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.send(escpos.New().Density(level).Bytes()); err != nil {
		return err
	}
	s.density = level
	return nil
}

// Write sends raw bytes unchanged
func (s *Session) Write(raw []byte) error {
	return s.sendLocked(raw)
}

func (s *Session) CutPart() error {
	return s.sendLocked(escpos.New().CutPart().Bytes())
}

func (s *Session) CutFull() error {
	return s.sendLocked(escpos.New().CutFull().Bytes())
}

func (s *Session) LineBreak() error {
	return s.sendLocked(escpos.New().LineFeed().Bytes())
}

func (s *Session) Beep() error {
	return s.sendLocked(escpos.New().Beep().Bytes())
}

func (s *Session) KickCashDrawerPin2() error {
	return s.sendLocked(escpos.New().KickDrawer(0).Bytes())
}

func (s *Session) KickCashDrawerPin5() error {
	return s.sendLocked(escpos.New().KickDrawer(1).Bytes())
}

// Close closes the transport. Closing twice is not an error.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.transport.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, s.address, err)
	}
	return nil
}
