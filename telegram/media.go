package telegram

import (
	"fmt"

	"github.com/gotd/td/bin"
	"github.com/gotd/td/tg"
)

// EncodeMedia serializes message media with the TL encoding so it can be
// stored verbatim and decoded later.
func EncodeMedia(media tg.MessageMediaClass) ([]byte, error) {
	var b bin.Buffer
	if err := media.Encode(&b); err != nil {
		return nil, fmt.Errorf("encode %s: %w", media.TypeName(), err)
	}
	return b.Buf, nil
}

// DecodeMedia reverses EncodeMedia.
func DecodeMedia(data []byte) (tg.MessageMediaClass, error) {
	media, err := tg.DecodeMessageMedia(&bin.Buffer{Buf: data})
	if err != nil {
		return nil, fmt.Errorf("decode media: %w", err)
	}
	return media, nil
}

// InputMedia converts received media into the form accepted when sending.
// It reports false for media that cannot be re-sent.
func InputMedia(media tg.MessageMediaClass) (tg.InputMediaClass, bool) {
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		photo, ok := m.Photo.(*tg.Photo)
		if !ok {
			return nil, false
		}
		return &tg.InputMediaPhoto{ID: &tg.InputPhoto{
			ID:            photo.ID,
			AccessHash:    photo.AccessHash,
			FileReference: photo.FileReference,
		}}, true
	case *tg.MessageMediaDocument:
		doc, ok := m.Document.(*tg.Document)
		if !ok {
			return nil, false
		}
		return &tg.InputMediaDocument{ID: &tg.InputDocument{
			ID:            doc.ID,
			AccessHash:    doc.AccessHash,
			FileReference: doc.FileReference,
		}}, true
	case *tg.MessageMediaGeo:
		point, ok := m.Geo.(*tg.GeoPoint)
		if !ok {
			return nil, false
		}
		return &tg.InputMediaGeoPoint{GeoPoint: &tg.InputGeoPoint{Lat: point.Lat, Long: point.Long}}, true
	case *tg.MessageMediaContact:
		return &tg.InputMediaContact{
			PhoneNumber: m.PhoneNumber,
			FirstName:   m.FirstName,
			LastName:    m.LastName,
			Vcard:       m.Vcard,
		}, true
	case *tg.MessageMediaDice:
		return &tg.InputMediaDice{Emoticon: m.Emoticon}, true
	default:
		return nil, false
	}
}
