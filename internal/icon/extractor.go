package icon

import (
	"fmt"

	"topdock/internal/infrastructure/errors"
	"topdock/internal/infrastructure/logging"
	"topdock/internal/platform"
)

const opExtract = "extract"

// Extractor copies shell icons out of executables into RGBA buffers.
type Extractor struct {
	api    platform.IconAPI
	logger logging.Logger
}

// NewExtractor creates an extractor over the given OS layer
func NewExtractor(api platform.IconAPI, logger logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Extractor{api: api, logger: logger}
}

// Extract returns the icon the shell associates with path in the requested
// size class. Failures are *errors.ExtractionError. The caller is expected
// to have checked that path exists.
func (e *Extractor) Extract(path string, size Size) (*PixelBuffer, error) {
	context := map[string]string{"path": path, "size": size.String()}

	if !size.Valid() {
		return nil, errors.NewExtractionErrorWithContext(opExtract,
			fmt.Errorf("invalid icon size %d", int(size)), errors.ErrCodeInvalidArgument, context)
	}

	scope := newReleaseScope(e.logger)
	defer scope.close()

	dc, err := e.api.CreateCompatibleDC()
	if err != nil || dc == 0 {
		return nil, errors.NewExtractionErrorWithContext(opExtract, err, errors.ErrCodeDeviceContextUnavailable, context)
	}
	scope.add("device_context", func() error { return e.api.DeleteDC(dc) })

	hicon, count, err := e.api.ExtractIconEx(path, size.slot())
	if hicon != 0 {
		scope.add("icon", func() error { return e.api.DestroyIcon(hicon) })
	}
	if err != nil || count != 1 || hicon == 0 {
		if err == nil {
			err = fmt.Errorf("shell extracted %d icons", count)
		}
		return nil, errors.NewExtractionErrorWithContext(opExtract, err, errors.ErrCodeNoIconForPath, context)
	}

	info, err := e.api.GetIconInfo(hicon)
	if info.Mask != 0 {
		scope.add("mask_bitmap", func() error { return e.api.DeleteObject(info.Mask) })
	}
	if info.Color != 0 {
		scope.add("color_bitmap", func() error { return e.api.DeleteObject(info.Color) })
	}
	if err != nil {
		return nil, errors.NewExtractionErrorWithContext(opExtract, err, errors.ErrCodeIconInfoUnavailable, context)
	}
	if info.Color == 0 {
		return nil, errors.NewExtractionErrorWithContext(opExtract,
			fmt.Errorf("icon has no color plane"), errors.ErrCodeIconInfoUnavailable, context)
	}

	width, height := size.Dimensions()
	desc := platform.NewBitmapDescription(width, height)
	bits := make([]byte, desc.SizeImage)

	rows, err := e.api.GetDIBits(dc, info.Color, desc, bits)
	if err != nil || rows == 0 {
		if err == nil {
			err = fmt.Errorf("no rows copied")
		}
		return nil, errors.NewExtractionErrorWithContext(opExtract, err, errors.ErrCodePixelCopyFailed, context)
	}

	e.logger.Debug("Extracted icon", "path", path, "size", size.String(), "rows", rows)

	return &PixelBuffer{Width: width, Height: height, Pix: BGRAToRGBA(bits)}, nil
}
