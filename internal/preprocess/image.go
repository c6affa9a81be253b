// Package preprocess turns uploaded image bytes into the tensor layout the
// classifier was trained on.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
)

// MaxPixels caps width*height of a decodable image. Same limit as Pillow's
// MAX_IMAGE_PIXELS.
var MaxPixels = 89478485

type format struct {
	decode       func(io.Reader) (image.Image, error)
	decodeConfig func(io.Reader) (image.Config, error)
}

var formats = map[string]format{
	"png":  {png.Decode, png.DecodeConfig},
	"jpg":  {jpeg.Decode, jpeg.DecodeConfig},
	"jpeg": {jpeg.Decode, jpeg.DecodeConfig},
	"gif":  {gif.Decode, gif.DecodeConfig},
	"bmp":  {bmp.Decode, bmp.DecodeConfig},
}

// Supported reports whether ext (without the dot, any case) can be decoded.
func Supported(ext string) bool {
	_, ok := formats[strings.ToLower(ext)]
	return ok
}

// Decode parses r with the decoder picked by ext and returns an opaque RGB
// image. Alpha is discarded without blending. Images with no pixels or more
// than MaxPixels are rejected before the pixel data is decoded.
func Decode(ext string, r io.Reader) (*image.RGBA, error) {
	f, ok := formats[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("unsupported image format %q", ext)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s image: %w", ext, err)
	}

	cfg, err := f.decodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", ext, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("failed to decode %s image: empty image", ext)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(MaxPixels) {
		return nil, fmt.Errorf("failed to decode %s image: %dx%d exceeds %d pixels",
			ext, cfg.Width, cfg.Height, MaxPixels)
	}

	img, err := f.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", ext, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("failed to decode %s image: empty image", ext)
	}
	return toRGB(img), nil
}

func toRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		row := out.Pix[y*out.Stride : y*out.Stride+w*4]
		switch src := img.(type) {
		case *image.NRGBA:
			in := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < w; x++ {
				row[x*4], row[x*4+1], row[x*4+2] = in[x*4], in[x*4+1], in[x*4+2]
			}
		case *image.RGBA:
			in := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < w; x++ {
				row[x*4], row[x*4+1], row[x*4+2] = unpremultiply(in[x*4], in[x*4+1], in[x*4+2], in[x*4+3])
			}
		case *image.Gray:
			in := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < w; x++ {
				row[x*4], row[x*4+1], row[x*4+2] = in[x], in[x], in[x]
			}
		case *image.YCbCr:
			for x := 0; x < w; x++ {
				yi := src.YOffset(b.Min.X+x, b.Min.Y+y)
				ci := src.COffset(b.Min.X+x, b.Min.Y+y)
				row[x*4], row[x*4+1], row[x*4+2] = color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
			}
		case *image.Paletted:
			palette := make([]color.NRGBA, len(src.Palette))
			for i, c := range src.Palette {
				palette[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
			}
			in := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < w; x++ {
				var c color.NRGBA
				if int(in[x]) < len(palette) {
					c = palette[in[x]]
				}
				row[x*4], row[x*4+1], row[x*4+2] = c.R, c.G, c.B
			}
		default:
			for x := 0; x < w; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				row[x*4], row[x*4+1], row[x*4+2] = c.R, c.G, c.B
			}
		}
		for x := 0; x < w; x++ {
			row[x*4+3] = 0xff
		}
	}
	return out
}

func unpremultiply(r, g, b, a uint8) (uint8, uint8, uint8) {
	switch a {
	case 0xff:
		return r, g, b
	case 0:
		return 0, 0, 0
	}
	return uint8(uint32(r) * 0xff / uint32(a)),
		uint8(uint32(g) * 0xff / uint32(a)),
		uint8(uint32(b) * 0xff / uint32(a))
}

// Resize scales img to size x size with bicubic resampling.
func Resize(img image.Image, size int) image.Image {
	return resize.Resize(uint(size), uint(size), img, resize.Bicubic)
}

// Tensorize lays img out as a single-example NHWC batch of raw 0-255 channel
// values. The model was trained on unscaled pixels.
func Tensorize(img image.Image) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]float32, w*h*3)

	if src, ok := img.(*image.RGBA); ok {
		for y := 0; y < h; y++ {
			in := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			out := data[y*w*3:]
			for x := 0; x < w; x++ {
				out[x*3] = float32(in[x*4])
				out[x*3+1] = float32(in[x*4+1])
				out[x*3+2] = float32(in[x*4+2])
			}
		}
		return data
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			data[i] = float32(r >> 8)
			data[i+1] = float32(g >> 8)
			data[i+2] = float32(bl >> 8)
			i += 3
		}
	}
	return data
}

// Prepare decodes, resizes and tensorizes in one go.
func Prepare(ext string, r io.Reader, size int) ([]float32, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid image size %d", size)
	}
	img, err := Decode(ext, r)
	if err != nil {
		return nil, err
	}
	return Tensorize(Resize(img, size)), nil
}
