package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	watermark "github.com/yyyoichi/watermark_desk"
	"github.com/yyyoichi/watermark_desk/mark"
)

// fakeCollaborator records calls and returns canned results.
type fakeCollaborator struct {
	calls      []string
	readErr    error
	embedErr   error
	extractErr error
	bitLength  int
	extracted  watermark.Extracted
	payload    watermark.Payload
	shape      watermark.Shape
}

func (f *fakeCollaborator) ReadImage(path string) error {
	f.calls = append(f.calls, "ReadImage")
	return f.readErr
}

func (f *fakeCollaborator) ReadWatermark(p watermark.Payload) error {
	f.calls = append(f.calls, "ReadWatermark")
	f.payload = p
	return nil
}

func (f *fakeCollaborator) Embed(ctx context.Context, outputPath string) (int, error) {
	f.calls = append(f.calls, "Embed")
	return f.bitLength, f.embedErr
}

func (f *fakeCollaborator) Extract(ctx context.Context, path string, shape watermark.Shape, mode watermark.Mode, outputPath string) (watermark.Extracted, error) {
	f.calls = append(f.calls, "Extract")
	f.shape = shape
	return f.extracted, f.extractErr
}

func fakeFactory(f *fakeCollaborator) Factory {
	return func(passwordImg, passwordWm int) (Collaborator, error) {
		f.calls = append(f.calls, "New")
		return f, nil
	}
}

func TestEmbedValidation(t *testing.T) {
	test := []struct {
		name  string
		req   Request
		field string
		err   error
	}{
		{"no image", Request{Mode: watermark.ModeText, Content: "x", OutputPath: "o.png"}, FieldImagePath, ErrMissingField},
		{"no text", Request{Mode: watermark.ModeText, ImagePath: "i.png", OutputPath: "o.png"}, FieldContent, ErrMissingField},
		{"no watermark image", Request{Mode: watermark.ModeImage, ImagePath: "i.png", OutputPath: "o.png"}, FieldWatermarkImagePath, ErrMissingField},
		{"no bits", Request{Mode: watermark.ModeBits, ImagePath: "i.png", OutputPath: "o.png"}, FieldContent, ErrMissingField},
		{"bad bit value", Request{Mode: watermark.ModeBits, ImagePath: "i.png", Content: "1,2,0", OutputPath: "o.png"}, FieldContent, ErrMalformedBits},
		{"bad bit token", Request{Mode: watermark.ModeBits, ImagePath: "i.png", Content: "1,a", OutputPath: "o.png"}, FieldContent, ErrMalformedBits},
		{"no output", Request{Mode: watermark.ModeText, ImagePath: "i.png", Content: "x"}, FieldOutputPath, ErrMissingField},
		// content is checked before the output path
		{"order", Request{Mode: watermark.ModeBits, ImagePath: "i.png", Content: "0,3"}, FieldContent, ErrMalformedBits},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeCollaborator{}
			res := New(fakeFactory(f)).Embed(context.Background(), tt.req)
			assert.False(t, res.OK)
			assert.Nil(t, res.Payload)
			assert.NotEmpty(t, res.Message)
			var verr *ValidationError
			require.True(t, errors.As(res.Err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, res.Err, tt.err)
			assert.Empty(t, f.calls, "collaborator must not be touched")
		})
	}
}

func TestExtractValidation(t *testing.T) {
	test := []struct {
		name  string
		req   Request
		field string
		err   error
	}{
		{"no image", Request{Mode: watermark.ModeText, Shape: "96", OutputPath: "o.txt"}, FieldImagePath, ErrMissingField},
		{"no shape", Request{Mode: watermark.ModeText, ImagePath: "i.png", OutputPath: "o.txt"}, FieldShape, ErrMissingField},
		{"image shape one value", Request{Mode: watermark.ModeImage, ImagePath: "i.png", Shape: "128", OutputPath: "o.png"}, FieldShape, ErrMalformedShape},
		{"image shape negative", Request{Mode: watermark.ModeImage, ImagePath: "i.png", Shape: "-1,4", OutputPath: "o.png"}, FieldShape, ErrMalformedShape},
		{"image shape overflow", Request{Mode: watermark.ModeImage, ImagePath: "i.png", Shape: "4,4611686018427387905", OutputPath: "o.png"}, FieldShape, ErrMalformedShape},
		{"text shape pair", Request{Mode: watermark.ModeText, ImagePath: "i.png", Shape: "4,4", OutputPath: "o.txt"}, FieldShape, ErrMalformedShape},
		{"bits shape word", Request{Mode: watermark.ModeBits, ImagePath: "i.png", Shape: "four", OutputPath: "o.txt"}, FieldShape, ErrMalformedShape},
		{"no output", Request{Mode: watermark.ModeBits, ImagePath: "i.png", Shape: "4"}, FieldOutputPath, ErrMissingField},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeCollaborator{}
			res := New(fakeFactory(f)).Extract(context.Background(), tt.req)
			assert.False(t, res.OK)
			var verr *ValidationError
			require.True(t, errors.As(res.Err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, res.Err, tt.err)
			assert.Empty(t, f.calls)
		})
	}
}

func TestEmbedFake(t *testing.T) {
	test := []struct {
		name        string
		req         Request
		bitLength   int
		wantPayload *Payload
	}{
		{"text", Request{Mode: watermark.ModeText, ImagePath: "i.png", Content: "hi", OutputPath: "o.png"}, 48, &Payload{BitLength: 48}},
		{"bits", Request{Mode: watermark.ModeBits, ImagePath: "i.png", Content: "1, 0,1", OutputPath: "o.png"}, 3, &Payload{BitLength: 3}},
		{"image", Request{Mode: watermark.ModeImage, ImagePath: "i.png", WatermarkImagePath: "w.png", OutputPath: "o.png"}, 64, nil},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeCollaborator{bitLength: tt.bitLength}
			res := New(fakeFactory(f)).Embed(context.Background(), tt.req)
			require.True(t, res.OK, res.Message)
			assert.NoError(t, res.Err)
			if diff := cmp.Diff(tt.wantPayload, res.Payload); diff != "" {
				t.Errorf("payload mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, []string{"New", "ReadImage", "ReadWatermark", "Embed"}, f.calls)
			assert.Equal(t, tt.req.Mode, f.payload.Mode())
		})
	}
}

func TestEmbedFailure(t *testing.T) {
	f := &fakeCollaborator{readErr: watermark.ErrDecodeImage}
	res := New(fakeFactory(f)).Embed(context.Background(), Request{
		Mode: watermark.ModeText, ImagePath: "i.png", Content: "x", OutputPath: "o.png",
	})
	assert.False(t, res.OK)
	assert.Contains(t, res.Message, "embed failed: ")
	assert.Contains(t, res.Message, watermark.ErrDecodeImage.Error())
	assert.ErrorIs(t, res.Err, ErrCollaborator)
	assert.ErrorIs(t, res.Err, watermark.ErrDecodeImage)
	assert.Equal(t, []string{"New", "ReadImage"}, f.calls)

	factoryErr := errors.New("boom")
	res = New(func(int, int) (Collaborator, error) { return nil, factoryErr }).Embed(context.Background(), Request{
		Mode: watermark.ModeText, ImagePath: "i.png", Content: "x", OutputPath: "o.png",
	})
	assert.ErrorIs(t, res.Err, factoryErr)
	assert.ErrorIs(t, res.Err, ErrCollaborator)
}

func TestExtractFake(t *testing.T) {
	dir := t.TempDir()
	test := []struct {
		name      string
		req       Request
		extracted watermark.Extracted
		want      *Payload
		written   string // "" means no file
	}{
		{"text", Request{Mode: watermark.ModeText, Shape: "96"}, watermark.Extracted{Text: "hello"}, &Payload{Content: "hello"}, "hello"},
		{"bits threshold", Request{Mode: watermark.ModeBits, Shape: "4"}, watermark.Extracted{Confidence: []float64{0.5, 0.49, 0.75, 1}}, &Payload{Content: "1,0,1,1"}, "1,0,1,1"},
		{"image", Request{Mode: watermark.ModeImage, Shape: "8,4"}, watermark.Extracted{}, nil, ""},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, tt.name+".out")
			tt.req.ImagePath = "marked.png"
			tt.req.OutputPath = out
			f := &fakeCollaborator{extracted: tt.extracted}
			res := New(fakeFactory(f)).Extract(context.Background(), tt.req)
			require.True(t, res.OK, res.Message)
			assert.Equal(t, tt.want, res.Payload)
			assert.Contains(t, res.Message, out)
			assert.Equal(t, []string{"New", "Extract"}, f.calls)

			b, err := os.ReadFile(out)
			if tt.written == "" {
				assert.True(t, os.IsNotExist(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.written, string(b))
		})
	}
}

func TestExtractFailureWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	f := &fakeCollaborator{extractErr: watermark.ErrTooSmallImage}
	res := New(fakeFactory(f)).Extract(context.Background(), Request{
		Mode: watermark.ModeText, ImagePath: "i.png", Shape: "96", OutputPath: out,
	})
	assert.False(t, res.OK)
	assert.Nil(t, res.Payload)
	assert.Contains(t, res.Message, "extract failed: ")
	assert.ErrorIs(t, res.Err, watermark.ErrTooSmallImage)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func writeCover(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for y := range 256 {
		for x := range 256 {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(60 + x/2), G: uint8(80 + y/3), B: uint8(150 - (x+y)/8), A: 255})
		}
	}
	path := filepath.Join(dir, "cover.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestEngineExtractOversizedShape(t *testing.T) {
	dir := t.TempDir()
	cover := writeCover(t, dir)
	out := filepath.Join(dir, "mark.png")
	var res Result
	assert.NotPanics(t, func() {
		res = New(nil).Extract(context.Background(), Request{
			Mode: watermark.ModeImage, ImagePath: cover, Shape: "4,4611686018427387905",
			OutputPath: out, PasswordImg: 1, PasswordWm: 1,
		})
	})
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, ErrMalformedShape)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestEngineRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cover := writeCover(t, dir)
	p := New(nil)
	ctx := context.Background()

	test := []struct {
		name    string
		mode    watermark.Mode
		content string
	}{
		{"text", watermark.ModeText, "hello"},
		{"bits", watermark.ModeBits, "1,0,1,1"},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			marked := filepath.Join(dir, tt.name+".png")
			res := p.Embed(ctx, Request{
				Mode: tt.mode, ImagePath: cover, PasswordImg: 1, PasswordWm: 1,
				Content: tt.content, OutputPath: marked,
			})
			require.True(t, res.OK, res.Message)
			require.NotNil(t, res.Payload)

			out := filepath.Join(dir, tt.name+".txt")
			res = p.Extract(ctx, Request{
				Mode: tt.mode, ImagePath: marked, PasswordImg: 1, PasswordWm: 1,
				Shape: strconv.Itoa(res.Payload.BitLength), OutputPath: out,
			})
			require.True(t, res.OK, res.Message)
			assert.Equal(t, tt.content, res.Payload.Content)
			b, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(b))
		})
	}
}

func TestEngineMissingImage(t *testing.T) {
	dir := t.TempDir()
	res := New(nil).Embed(context.Background(), Request{
		Mode: watermark.ModeText, ImagePath: filepath.Join(dir, "missing.png"),
		Content: "x", OutputPath: filepath.Join(dir, "out.png"),
	})
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, watermark.ErrDecodeImage)
	_, err := os.Stat(filepath.Join(dir, "out.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	cover := writeCover(t, dir)
	var jobs []Job
	for i, text := range []string{"one", "two", "three", "four"} {
		jobs = append(jobs, Job{Op: OpEmbed, Request: Request{
			Mode: watermark.ModeText, ImagePath: cover, PasswordImg: i, PasswordWm: i,
			Content: text, OutputPath: filepath.Join(dir, text+".png"),
		}})
	}
	jobs = append(jobs, Job{Op: OpExtract, Request: Request{Mode: watermark.ModeText, ImagePath: cover}})

	results := New(nil).Batch(context.Background(), jobs, 2)
	require.Len(t, results, 5)
	for i := range 4 {
		assert.True(t, results[i].OK, results[i].Message)
		want := len(mark.New(0).EncodeText(jobs[i].Request.Content))
		assert.Equal(t, want, results[i].Payload.BitLength, "job %d", i)
	}
	assert.False(t, results[4].OK)
	assert.ErrorIs(t, results[4].Err, ErrMissingField)

	assert.Empty(t, New(nil).Batch(context.Background(), nil, 4))
}

func TestParseOp(t *testing.T) {
	op, err := ParseOp("Extract")
	require.NoError(t, err)
	assert.Equal(t, OpExtract, op)
	assert.Equal(t, "extract", op.String())
	_, err = ParseOp("copy")
	assert.Error(t, err)
}
