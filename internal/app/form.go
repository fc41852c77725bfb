package app

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	watermark "github.com/yyyoichi/watermark_desk"
	"github.com/yyyoichi/watermark_desk/internal/pipeline"
)

// ErrMalformedPassword reports a password that is not an integer.
var ErrMalformedPassword = errors.New("password must be an integer")

// Form is the shared state of the embed and extract pages.
type Form struct {
	Mode               watermark.Mode
	ImagePath          string
	WatermarkContent   string
	WatermarkImagePath string
	OutputPath         string
	PasswordImg        string
	PasswordWm         string
	Shape              string
}

func DefaultForm() Form {
	return Form{
		Mode:        watermark.ModeText,
		PasswordImg: "1",
		PasswordWm:  "1",
		Shape:       "128,128",
	}
}

// Request converts the form. Passwords must parse as integers.
func (f Form) Request() (pipeline.Request, error) {
	pwImg, err := strconv.Atoi(strings.TrimSpace(f.PasswordImg))
	if err != nil {
		return pipeline.Request{}, &pipeline.ValidationError{
			Field: "passwordImg", Message: "image password must be an integer",
			Err: errors.Wrap(ErrMalformedPassword, f.PasswordImg),
		}
	}
	pwWm, err := strconv.Atoi(strings.TrimSpace(f.PasswordWm))
	if err != nil {
		return pipeline.Request{}, &pipeline.ValidationError{
			Field: "passwordWm", Message: "watermark password must be an integer",
			Err: errors.Wrap(ErrMalformedPassword, f.PasswordWm),
		}
	}
	return pipeline.Request{
		Mode:               f.Mode,
		ImagePath:          f.ImagePath,
		PasswordImg:        pwImg,
		PasswordWm:         pwWm,
		OutputPath:         f.OutputPath,
		Content:            f.WatermarkContent,
		WatermarkImagePath: f.WatermarkImagePath,
		Shape:              f.Shape,
	}, nil
}
