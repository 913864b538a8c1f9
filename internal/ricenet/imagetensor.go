package ricenet

import (
	"image"
	_ "image/jpeg" // Sample photos are typically JPEG.
	_ "image/png"
	"os"
	"time"

	"golang.org/x/image/draw"

	"github.com/graintec/ricenet-go/internal/errors"
)

// InputSize is the edge length in pixels of the model's square image input.
const InputSize = 384

const inputChannels = 3

// Channel normalization applied during training, standard ImageNet
// statistics for models fine-tuned from pretrained backbones.
var (
	channelMeans = [inputChannels]float32{0.485, 0.456, 0.406}
	channelStds  = [inputChannels]float32{0.229, 0.224, 0.225}
)

// LoadImageTensor decodes the sample photo at path and converts it to a
// model input tensor.
func LoadImageTensor(path string) ([]float32, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is a user-supplied sample photo
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", path).
			Context("operation", "open").
			Build()
	}
	defer f.Close() //nolint:errcheck // read-only file

	start := time.Now()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryImageDecode).
			Context("path", path).
			Build()
	}

	tensor := ImageToTensor(img)
	if m := getMetrics(); m != nil {
		m.RecordImagePrepare(format, time.Since(start).Seconds())
	}
	GetLogger().Debug("decoded sample photo",
		"path", path,
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())
	return tensor, nil
}

// ImageToTensor scales the image to the model input size and converts it to
// a float32 slice laid out in NHWC order with shape (1, 384, 384, 3).
// Pixels are scaled to 0-1 and normalized with the training channel
// statistics.
func ImageToTensor(img image.Image) []float32 {
	scaled := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	out := make([]float32, 1*InputSize*InputSize*inputChannels)

	// iterate rows (y) then columns (x) so memory layout matches NHWC
	for y := range InputSize {
		for x := range InputSize {
			c := scaled.RGBAAt(x, y)
			base := ((y * InputSize) + x) * inputChannels
			out[base+0] = (float32(c.R)/255 - channelMeans[0]) / channelStds[0]
			out[base+1] = (float32(c.G)/255 - channelMeans[1]) / channelStds[1]
			out[base+2] = (float32(c.B)/255 - channelMeans[2]) / channelStds[2]
		}
	}

	return out
}
