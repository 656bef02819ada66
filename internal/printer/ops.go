package printer

import "escpos-print/internal/layout"

// Operations addressed by printer address. Each one cancels a pending
// disconnect of that printer before running.

func (p *Pool) Print(address, text string) error {
	return p.Do(address, func(s *Session) error { return s.Print(text) })
}

func (p *Pool) PrintLn(address, text string) error {
	return p.Do(address, func(s *Session) error { return s.PrintLn(text) })
}

func (p *Pool) PrintBarcode(address, code, symbology string, width, height int, position, font string) error {
	return p.Do(address, func(s *Session) error {
		return s.PrintBarcode(code, symbology, width, height, position, font)
	})
}

func (p *Pool) PrintQRCode(address, value string, size int) error {
	return p.Do(address, func(s *Session) error { return s.PrintQRCode(value, size) })
}

func (p *Pool) PrintImage(address, path string) error {
	return p.Do(address, func(s *Session) error { return s.PrintImage(path) })
}

func (p *Pool) PrintImageFit(address, path string, maxHeight int) error {
	return p.Do(address, func(s *Session) error { return s.PrintImageFit(path, maxHeight) })
}

func (p *Pool) PrintDesign(address, markup string) error {
	return p.Do(address, func(s *Session) error { return s.PrintDesign(markup) })
}

func (p *Pool) PrintSample(address string) error {
	return p.Do(address, func(s *Session) error { return s.PrintSample() })
}

func (p *Pool) Write(address string, raw []byte) error {
	return p.Do(address, func(s *Session) error { return s.Write(raw) })
}

func (p *Pool) SetCharCode(address, name string) error {
	return p.Do(address, func(s *Session) error { return s.SetCharCode(name) })
}

func (p *Pool) SetTextDensity(address string, level int) error {
	return p.Do(address, func(s *Session) error { return s.SetTextDensity(level) })
}

func (p *Pool) SetPrintingSize(address string, size layout.PaperSize) error {
	return p.Do(address, func(s *Session) error {
		s.SetPrintingSize(size)
		return nil
	})
}

func (p *Pool) SetCharsOnLine(address string, n int) error {
	return p.Do(address, func(s *Session) error { return s.SetCharsOnLine(n) })
}

func (p *Pool) SetPrintingWidth(address string, dots int) error {
	return p.Do(address, func(s *Session) error { return s.SetPrintingWidth(dots) })
}

func (p *Pool) CutPart(address string) error {
	return p.Do(address, (*Session).CutPart)
}

func (p *Pool) CutFull(address string) error {
	return p.Do(address, (*Session).CutFull)
}

func (p *Pool) LineBreak(address string) error {
	return p.Do(address, (*Session).LineBreak)
}

func (p *Pool) Beep(address string) error {
	return p.Do(address, (*Session).Beep)
}

func (p *Pool) KickCashDrawerPin2(address string) error {
	return p.Do(address, (*Session).KickCashDrawerPin2)
}

func (p *Pool) KickCashDrawerPin5(address string) error {
	return p.Do(address, (*Session).KickCashDrawerPin5)
}
