package anki

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"flashdeck/internal/card"
	"flashdeck/internal/services"
	"flashdeck/internal/textutil"
)

const (
	schemaVersion = 11
	fieldSep      = "\x1f"
)

type modelField struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Sticky bool     `json:"sticky"`
	RTL    bool     `json:"rtl"`
	Font   string   `json:"font"`
	Size   int      `json:"size"`
	Media  []string `json:"media"`
}

type modelTemplate struct {
	Name  string  `json:"name"`
	Ord   int     `json:"ord"`
	QFmt  string  `json:"qfmt"`
	AFmt  string  `json:"afmt"`
	BQFmt string  `json:"bqfmt"`
	BAFmt string  `json:"bafmt"`
	Did   *int64  `json:"did"`
	BFont string  `json:"bfont"`
	BSize float64 `json:"bsize"`
}

type model struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Type      int             `json:"type"`
	Mod       int64           `json:"mod"`
	USN       int             `json:"usn"`
	SortF     int             `json:"sortf"`
	Did       int64           `json:"did"`
	Tmpls     []modelTemplate `json:"tmpls"`
	Flds      []modelField    `json:"flds"`
	CSS       string          `json:"css"`
	LatexPre  string          `json:"latexPre"`
	LatexPost string          `json:"latexPost"`
	LatexSVG  bool            `json:"latexsvg"`
	Req       [][]any         `json:"req"`
	Tags      []string        `json:"tags"`
	Vers      []string        `json:"vers"`
}

type deckEntry struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Desc             string `json:"desc"`
	Mod              int64  `json:"mod"`
	USN              int    `json:"usn"`
	Collapsed        bool   `json:"collapsed"`
	BrowserCollapsed bool   `json:"browserCollapsed"`
	NewToday         [2]int `json:"newToday"`
	RevToday         [2]int `json:"revToday"`
	LrnToday         [2]int `json:"lrnToday"`
	TimeToday        [2]int `json:"timeToday"`
	Dyn              int    `json:"dyn"`
	ExtendNew        int    `json:"extendNew"`
	ExtendRev        int    `json:"extendRev"`
	Conf             int    `json:"conf"`
}

type colConf struct {
	ActiveDecks   []int64 `json:"activeDecks"`
	AddToCur      bool    `json:"addToCur"`
	CollapseTime  int     `json:"collapseTime"`
	CurDeck       int64   `json:"curDeck"`
	CurModel      string  `json:"curModel"`
	DueCounts     bool    `json:"dueCounts"`
	EstTimes      bool    `json:"estTimes"`
	NewBury       bool    `json:"newBury"`
	NewSpread     int     `json:"newSpread"`
	NextPos       int     `json:"nextPos"`
	SortBackwards bool    `json:"sortBackwards"`
	SortType      string  `json:"sortType"`
	TimeLim       int     `json:"timeLim"`
}

type deckConfLapse struct {
	Delays      []float64 `json:"delays"`
	LeechAction int       `json:"leechAction"`
	LeechFails  int       `json:"leechFails"`
	MinInt      int       `json:"minInt"`
	Mult        float64   `json:"mult"`
}

type deckConfNew struct {
	Bury          bool      `json:"bury"`
	Delays        []float64 `json:"delays"`
	InitialFactor int       `json:"initialFactor"`
	Ints          []int     `json:"ints"`
	Order         int       `json:"order"`
	PerDay        int       `json:"perDay"`
	Separate      bool      `json:"separate"`
}

type deckConfRev struct {
	Bury     bool    `json:"bury"`
	Ease4    float64 `json:"ease4"`
	Fuzz     float64 `json:"fuzz"`
	IvlFct   float64 `json:"ivlFct"`
	MaxIvl   int     `json:"maxIvl"`
	MinSpace int     `json:"minSpace"`
	PerDay   int     `json:"perDay"`
}

type deckConf struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	Autoplay bool          `json:"autoplay"`
	Dyn      int           `json:"dyn"`
	Lapse    deckConfLapse `json:"lapse"`
	MaxTaken int           `json:"maxTaken"`
	Mod      int64         `json:"mod"`
	New      deckConfNew   `json:"new"`
	ReplayQ  bool          `json:"replayq"`
	Rev      deckConfRev   `json:"rev"`
	Timer    int           `json:"timer"`
	USN      int           `json:"usn"`
}

const basicCSS = `.card {
 font-family: arial;
 font-size: 20px;
 text-align: center;
 color: black;
 background-color: white;
}

code {
 font-family: monospace;
 font-size: 16px;
 background-color: #f4f4f4;
 border-radius: 3px;
 padding: 2px 4px;
}

pre {
 background-color: #f4f4f4;
 border-radius: 5px;
 padding: 12px;
 text-align: left;
 overflow-x: auto;
 white-space: pre-wrap;
}

pre code {
 background-color: transparent;
 padding: 0;
}
`

const (
	latexPre = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n" +
		"\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n" +
		"\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n"
	latexPost = "\\end{document}"
)

func basicModel(id, deckID, mod int64) model {
	return model{
		ID:    id,
		Name:  "Basic (flashdeck)",
		Mod:   mod,
		USN:   -1,
		Did:   deckID,
		Tmpls: []modelTemplate{{
			Name: "Card 1",
			QFmt: "{{Front}}",
			AFmt: "{{FrontSide}}\n\n<hr id=\"answer\">\n\n{{Back}}",
		}},
		Flds: []modelField{
			{Name: "Front", Ord: 0, Font: "Arial", Size: 20, Media: []string{}},
			{Name: "Back", Ord: 1, Font: "Arial", Size: 20, Media: []string{}},
		},
		CSS:       basicCSS,
		LatexPre:  latexPre,
		LatexPost: latexPost,
		Req:       [][]any{{0, "all", []int{0}}},
		Tags:      []string{},
		Vers:      []string{},
	}
}

func newDeckEntry(id int64, name string, mod int64) deckEntry {
	return deckEntry{
		ID:   id,
		Name: name,
		Mod:  mod,
		USN:  -1,
		Conf: 1,
	}
}

func defaultDeckConf() deckConf {
	return deckConf{
		ID:       1,
		Name:     "Default",
		Autoplay: true,
		Lapse: deckConfLapse{
			Delays:     []float64{10},
			LeechFails: 8,
			MinInt:     1,
		},
		MaxTaken: 60,
		New: deckConfNew{
			Bury:          true,
			Delays:        []float64{1, 10},
			InitialFactor: 2500,
			Ints:          []int{1, 4, 7},
			Order:         1,
			PerDay:        20,
			Separate:      true,
		},
		ReplayQ: true,
		Rev: deckConfRev{
			Bury:     true,
			Ease4:    1.3,
			Fuzz:     0.05,
			IvlFct:   1,
			MaxIvl:   36500,
			MinSpace: 1,
			PerDay:   100,
		},
		USN: -1,
	}
}

// writeCollection fills an empty collection database with one deck, one
// note model, and a note/card pair per flashcard. Cards keep their incoming
// order as new-queue positions.
func writeCollection(ctx context.Context, db *sql.DB, deck card.Deck, assigner *Assigner, now time.Time) error {
	deckID := assigner.NextID()
	modelID := assigner.NextID()
	nowSecs := now.Unix()
	nowMillis := now.UnixMilli()

	if err := writeColRow(ctx, db, deck.Name, deckID, modelID, nowSecs, nowMillis); err != nil {
		return err
	}

	for i, c := range deck.Cards {
		// Identifiers derive from the raw card text so they stay stable
		// regardless of how fields are rendered for display.
		noteID := assigner.NoteID(deck.Name, c.Front)
		front := renderFieldHTML(c.Front)
		back := renderFieldHTML(c.Back)
		flds := front + fieldSep + back
		sfld := textutil.StripMarkup(c.Front)
		_, err := db.ExecContext(ctx,
			`INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
			 VALUES (?, ?, ?, ?, -1, '', ?, ?, ?, 0, '')`,
			noteID, NoteGUID(c.Front, c.Back), modelID, nowSecs, flds, sfld, int64(FieldChecksum(front)))
		if err != nil {
			return services.Wrap(services.ErrSerialization, "serialize", "insert note", c.Front, err)
		}

		cardID := assigner.NextID()
		_, err = db.ExecContext(ctx,
			`INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due, ivl,
			                    factor, reps, lapses, left, odue, odid, flags, data)
			 VALUES (?, ?, ?, 0, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`,
			cardID, noteID, deckID, nowSecs, i+1)
		if err != nil {
			return services.Wrap(services.ErrSerialization, "serialize", "insert card", c.Front, err)
		}
	}

	return verifyIntegrity(ctx, db)
}

func writeColRow(ctx context.Context, db *sql.DB, deckName string, deckID, modelID, nowSecs, nowMillis int64) error {
	m := basicModel(modelID, deckID, nowSecs)
	models := map[string]model{strconv.FormatInt(modelID, 10): m}

	decks := map[string]deckEntry{
		"1": newDeckEntry(1, "Default", nowSecs),
		strconv.FormatInt(deckID, 10): newDeckEntry(deckID, deckName, nowSecs),
	}

	conf := colConf{
		ActiveDecks:  []int64{deckID},
		AddToCur:     true,
		CollapseTime: 1200,
		CurDeck:      deckID,
		CurModel:     strconv.FormatInt(modelID, 10),
		DueCounts:    true,
		EstTimes:     true,
		NewBury:      true,
		NextPos:      1,
		SortType:     "noteFld",
	}

	dconf := map[string]deckConf{"1": defaultDeckConf()}

	blobs := make([]string, 0, 4)
	for _, v := range []any{conf, models, decks, dconf} {
		encoded, err := json.Marshal(v)
		if err != nil {
			return services.Wrap(services.ErrSerialization, "serialize", "encode collection metadata", "", err)
		}
		blobs = append(blobs, string(encoded))
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
		 VALUES (1, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		nowSecs, nowMillis, nowMillis, schemaVersion, blobs[0], blobs[1], blobs[2], blobs[3])
	if err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "insert collection row", "", err)
	}
	return nil
}

// verifyIntegrity rejects a collection with dangling references before it is
// packaged: every card must point at an existing note.
func verifyIntegrity(ctx context.Context, db *sql.DB) error {
	var dangling int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards WHERE nid NOT IN (SELECT id FROM notes)`).Scan(&dangling)
	if err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "verify references", "", err)
	}
	if dangling > 0 {
		return services.Wrap(services.ErrSerialization, "serialize", "verify references",
			fmt.Sprintf("%d cards reference missing notes", dangling), nil)
	}
	return nil
}
