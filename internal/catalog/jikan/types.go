package jikan

// --- Common Types ---
type NamedResource struct {
	MalID int    `json:"mal_id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

type TitleEntry struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

type ImageSet struct {
	ImageURL      string `json:"image_url"`
	SmallImageURL string `json:"small_image_url"`
	LargeImageURL string `json:"large_image_url"`
}

type Images struct {
	JPG  ImageSet `json:"jpg"`
	WebP ImageSet `json:"webp"`
}

type Aired struct {
	From   *string `json:"from"`
	To     *string `json:"to"`
	String string  `json:"string"`
}

// AnimeData is one anime record as returned by Jikan v4.
type AnimeData struct {
	MalID          int             `json:"mal_id"`
	URL            string          `json:"url"`
	Images         Images          `json:"images"`
	Titles         []TitleEntry    `json:"titles"`
	Title          string          `json:"title"`
	TitleEnglish   *string         `json:"title_english"`
	TitleJapanese  *string         `json:"title_japanese"`
	Type           string          `json:"type"`
	Episodes       *int            `json:"episodes"`
	Status         string          `json:"status"`
	Aired          Aired           `json:"aired"`
	Score          *float64        `json:"score"`
	Synopsis       *string         `json:"synopsis"`
	Season         *string         `json:"season"`
	Year           *int            `json:"year"`
	Studios        []NamedResource `json:"studios"`
	Genres         []NamedResource `json:"genres"`
	ExplicitGenres []NamedResource `json:"explicit_genres"`
	Themes         []NamedResource `json:"themes"`
}

// --- Season Types ---
type Pagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
}

type SeasonResponse struct {
	Data       []AnimeData `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// --- Single Anime Types ---
type AnimeResponse struct {
	Data *AnimeData `json:"data"`
}
