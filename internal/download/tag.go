package download

import (
	"fmt"
	"strconv"

	"github.com/bogem/id3v2/v2"
)

// TagInfo holds the ID3 frames written to a downloaded MP3.
type TagInfo struct {
	Title  string
	Artist string
	Album  string
	Year   int
	GUID   string
	Track  int
}

// WriteTags replaces the ID3v2.4 title, artist, album, year, track, and
// comment frames of the MP3 at path.
func WriteTags(path string, info TagInfo) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 tag: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if info.Title != "" {
		tag.SetTitle(info.Title)
	}
	if info.Artist != "" {
		tag.SetArtist(info.Artist)
	}
	if info.Album != "" {
		tag.SetAlbum(info.Album)
	}
	if info.Year > 0 {
		tag.SetYear(strconv.Itoa(info.Year))
	}
	tag.SetGenre("Podcast")
	if info.Track > 0 {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), id3v2.EncodingUTF8, strconv.Itoa(info.Track))
	}
	if info.GUID != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "guid",
			Text:        info.GUID,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save id3 tag: %w", err)
	}
	return nil
}
