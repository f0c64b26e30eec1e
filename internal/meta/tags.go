package meta

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	bin "github.com/simonhull/imgmeta/internal/binary"
	"github.com/simonhull/imgmeta/internal/types"
)

const commentKey = "Comment"

// Pointer fields are structure, not tags.
var exifPointers = map[exif.FieldName]bool{
	exif.ExifIFDPointer:             true,
	exif.GPSInfoIFDPointer:          true,
	exif.InteroperabilityIFDPointer: true,
}

// parseExif flattens the EXIF block. A block goexif cannot decode at all
// is a load failure. Unreadable sub-IFDs are warnings.
func (s *Store) parseExif() error {
	s.exif = nil
	if len(s.payload.Exif) == 0 {
		return nil
	}

	x, err := exif.Decode(bytes.NewReader(s.payload.Exif))
	if err != nil {
		if exif.IsCriticalError(err) {
			return &types.CorruptedFileError{Path: s.path, Reason: "exif: " + err.Error()}
		}
		s.warn("exif", "%v", strings.TrimSpace(err.Error()))
	}

	s.exif = make(map[string]string)
	x.Walk(exifWalker(s.exif))
	return nil
}

type exifWalker map[string]string

func (w exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if exifPointers[name] {
		return nil
	}
	value := tag.String()
	if tag.Format() == tiff.StringVal {
		value, _ = tag.StringVal()
	}
	w["Exif."+string(name)] = value
	return nil
}

// IPTC-IIM application record dataset names.
var iptcDatasets = map[uint8]string{
	5:   "ObjectName",
	7:   "EditStatus",
	10:  "Urgency",
	15:  "Category",
	20:  "SuppCategory",
	25:  "Keywords",
	40:  "SpecialInstructions",
	55:  "DateCreated",
	60:  "TimeCreated",
	80:  "Byline",
	85:  "BylineTitle",
	90:  "City",
	92:  "SubLocation",
	95:  "ProvinceState",
	100: "CountryCode",
	101: "CountryName",
	103: "TransmissionReference",
	105: "Headline",
	110: "Credit",
	115: "Source",
	116: "Copyright",
	118: "Contact",
	120: "Caption",
	122: "Writer",
}

const irbIPTC = 0x0404

// parseIPTC walks the Photoshop resource blocks and flattens the
// application record of the IPTC-IIM resource.
func (s *Store) parseIPTC() {
	s.iptc = nil
	data := s.payload.IPTC
	if len(data) == 0 {
		return
	}

	r := bin.NewReader(bin.NewSafeReader(bytes.NewReader(data), int64(len(data)), s.path), 0)
	for r.Remaining() > 0 {
		sig, err := r.ReadString(4, "IRB signature")
		if err != nil || sig != "8BIM" {
			s.warn("iptc", "malformed image resource block")
			return
		}
		id, err := bin.ReadValue[uint16](r, "IRB resource ID")
		if err != nil {
			s.warn("iptc", "truncated image resource block")
			return
		}
		// Pascal name padded to an even length, count byte included
		nameLen, err := bin.ReadValue[uint8](r, "IRB name length")
		if err != nil {
			s.warn("iptc", "truncated image resource block")
			return
		}
		r.Skip(int64(nameLen) + int64(1-nameLen%2))
		size, err := bin.ReadValue[uint32](r, "IRB data size")
		if err != nil {
			s.warn("iptc", "truncated image resource block")
			return
		}
		if int64(size) > r.Remaining() {
			s.warn("iptc", "image resource 0x%04X overruns its container", id)
			return
		}
		body, err := r.ReadBytes(int(size), "IRB data")
		if err != nil {
			s.warn("iptc", "truncated image resource block")
			return
		}
		if id == irbIPTC {
			s.parseIIM(body)
		}
		if size%2 == 1 && r.Remaining() > 0 {
			r.Skip(1)
		}
	}
}

func (s *Store) parseIIM(data []byte) {
	values := make(map[string][]string)
	var order []string

	for len(data) >= 5 {
		if data[0] != 0x1C {
			s.warn("iptc", "bad IIM tag marker 0x%02X", data[0])
			break
		}
		record, dataset := data[1], data[2]
		size := int(binary.BigEndian.Uint16(data[3:5]))
		if size&0x8000 != 0 {
			s.warn("iptc", "extended IIM dataset %d:%d not supported", record, dataset)
			break
		}
		if len(data) < 5+size {
			s.warn("iptc", "truncated IIM dataset %d:%d", record, dataset)
			break
		}
		value := string(data[5 : 5+size])
		data = data[5+size:]

		if record != 2 || dataset == 0 {
			continue
		}
		name, ok := iptcDatasets[dataset]
		if !ok {
			name = fmt.Sprintf("0x%04x", dataset)
		}
		key := "Iptc.Application2." + name
		if _, seen := values[key]; !seen {
			order = append(order, key)
		}
		values[key] = append(values[key], value)
	}

	if len(order) == 0 {
		return
	}
	if s.iptc == nil {
		s.iptc = make(map[string]string, len(order))
	}
	for _, key := range order {
		joined := strings.Join(values[key], ", ")
		if prev, ok := s.iptc[key]; ok {
			joined = prev + ", " + joined
		}
		s.iptc[key] = joined
	}
}

const (
	rdfNS   = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	xmlNS   = "http://www.w3.org/XML/1998/namespace"
	xmlnsNS = "xmlns"
)

// Common XMP schema prefixes. Prefixes declared in the packet cover the
// rest.
var xmpPrefixes = map[string]string{
	"http://purl.org/dc/elements/1.1/":             "dc",
	"http://ns.adobe.com/xap/1.0/":                 "xmp",
	"http://ns.adobe.com/xap/1.0/mm/":              "xmpMM",
	"http://ns.adobe.com/xap/1.0/rights/":          "xmpRights",
	"http://ns.adobe.com/photoshop/1.0/":           "photoshop",
	"http://ns.adobe.com/exif/1.0/":                "exif",
	"http://ns.adobe.com/tiff/1.0/":                "tiff",
	"http://ns.adobe.com/camera-raw-settings/1.0/": "crs",
	"http://iptc.org/std/Iptc4xmpCore/1.0/xmlns/":  "Iptc4xmpCore",
}

// parseXMP flattens the simple properties of every rdf:Description:
// attribute properties, text properties and rdf:Alt/Seq/Bag arrays.
// Nested structures are skipped.
func (s *Store) parseXMP() {
	s.xmp = nil
	if len(s.payload.XMP) == 0 {
		return
	}
	tags, err := flattenXMP(s.payload.XMP)
	if err != nil {
		s.warn("xmp", "%v", err)
	}
	if len(tags) > 0 {
		s.xmp = tags
	}
}

func flattenXMP(packet []byte) (map[string]string, error) {
	out := make(map[string]string)
	declared := make(map[string]string)

	key := func(name xml.Name) (string, bool) {
		prefix, ok := xmpPrefixes[name.Space]
		if !ok {
			prefix, ok = declared[name.Space]
		}
		if !ok || name.Local == "" {
			return "", false
		}
		return "Xmp." + prefix + "." + name.Local, true
	}

	d := xml.NewDecoder(bytes.NewReader(packet))
	var (
		depth     int
		descDepth int // depth of the open rdf:Description, 0 if none
		prop      *xml.Name
		container string
		text      strings.Builder
		items     []string
		inItem    bool
	)

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("parse XMP: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			for _, a := range t.Attr {
				if a.Name.Space == xmlnsNS {
					declared[a.Value] = a.Name.Local
				}
			}

			switch {
			case t.Name.Space == rdfNS && t.Name.Local == "Description" && prop == nil:
				descDepth = depth
				for _, a := range t.Attr {
					if a.Name.Space == rdfNS || a.Name.Space == xmlnsNS || a.Name.Space == xmlNS || a.Name.Space == "" {
						continue
					}
					if k, ok := key(a.Name); ok {
						out[k] = a.Value
					}
				}
			case descDepth > 0 && depth == descDepth+1:
				name := t.Name
				prop = &name
				container = ""
				text.Reset()
				items = nil
				for _, a := range t.Attr {
					if a.Name.Space == rdfNS && a.Name.Local == "resource" {
						text.WriteString(a.Value)
					}
				}
			case prop != nil && t.Name.Space == rdfNS:
				switch t.Name.Local {
				case "Alt", "Seq", "Bag":
					container = t.Name.Local
				case "li":
					inItem = true
					items = append(items, "")
				}
			}

		case xml.CharData:
			switch {
			case inItem:
				items[len(items)-1] += string(t)
			case prop != nil && depth == descDepth+1:
				text.Write(t)
			}

		case xml.EndElement:
			switch {
			case inItem && t.Name.Space == rdfNS && t.Name.Local == "li":
				inItem = false
			case prop != nil && depth == descDepth+1:
				if k, ok := key(*prop); ok {
					switch {
					case container == "Alt" && len(items) > 0:
						out[k] = strings.TrimSpace(items[0])
					case container != "":
						for i := range items {
							items[i] = strings.TrimSpace(items[i])
						}
						out[k] = strings.Join(items, ", ")
					default:
						if v := strings.TrimSpace(text.String()); v != "" {
							out[k] = v
						}
					}
				}
				prop = nil
			case depth == descDepth:
				descDepth = 0
			}
			depth--
		}
	}
}
