package render

import (
	"bytes"
	"image"
	"image/png"
)

var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// EncodePNG кодирует изображение тайла в PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := pngEncoder.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePNG декодирует PNG тайла
func DecodePNG(data []byte) (image.Image, error) {
	return png.Decode(bytes.NewReader(data))
}
