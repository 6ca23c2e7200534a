// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package imagepdf turns JPEG and PNG images into single page PDF
// documents.
package imagepdf

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/go-pdf/fpdf"
	"github.com/h2non/filetype"
	"github.com/pkg/errors"
)

// DefaultResolution is the resolution, in dots per inch, at which
// images are placed on the page.
const DefaultResolution = 100.0

const pointsPerInch = 72.0

// Decode decodes JPEG or PNG data.  The format is sniffed from the
// content, not taken from any declared media type.
func Decode(data []byte) (image.Image, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, errors.Wrap(err, "unable to sniff image type")
	}
	var img image.Image
	switch kind.MIME.Value {
	case "image/jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case "image/png":
		img, err = png.Decode(bytes.NewReader(data))
	case "":
		return nil, errors.New("unrecognized image data")
	default:
		return nil, errors.Errorf("unsupported image type %s", kind.MIME.Value)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s", kind.MIME.Value)
	}
	return img, nil
}

// EncodePDF renders img as a one page PDF.  The page is exactly the
// size of the image at the given resolution, and the image fills it.
func EncodePDF(img image.Image, resolution float64) ([]byte, error) {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("image is empty")
	}
	w := float64(b.Dx()) * pointsPerInch / resolution
	h := float64(b.Dy()) * pointsPerInch / resolution

	// fpdf reads only 8 bit, non-interlaced PNGs.  Normalizing to
	// NRGBA and re-encoding guarantees that.
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	var src bytes.Buffer
	if err := png.Encode(&src, nrgba); err != nil {
		return nil, errors.Wrap(err, "unable to re-encode image")
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("page", opts, &src)
	pdf.ImageOptions("page", 0, 0, w, h, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, errors.Wrap(err, "unable to write PDF")
	}
	return out.Bytes(), nil
}

// Converter converts image attachments with Decode and EncodePDF.
type Converter struct {
	// Resolution in dots per inch.  Zero means DefaultResolution.
	Resolution float64
}

// ToPDF converts JPEG or PNG data to a single page PDF.
func (c Converter) ToPDF(data []byte) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodePDF(img, c.Resolution)
}
