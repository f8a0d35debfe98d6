package sonarr

type SystemStatus struct {
	AppName string `json:"appName"`
	Version string `json:"version"`
}

type RootFolder struct {
	ID         int    `json:"id"`
	Path       string `json:"path"`
	Accessible bool   `json:"accessible"`
	FreeSpace  int64  `json:"freeSpace"`
	TotalSpace int64  `json:"totalSpace"`
}

type AlternateTitle struct {
	Title        string `json:"title"`
	SeasonNumber *int   `json:"seasonNumber,omitempty"`
}

type Image struct {
	CoverType string `json:"coverType"`
	URL       string `json:"url,omitempty"`
	RemoteURL string `json:"remoteUrl,omitempty"`
}

type Season struct {
	SeasonNumber int  `json:"seasonNumber"`
	Monitored    bool `json:"monitored"`
}

// Series is a series as returned by lookup and list calls.
type Series struct {
	ID              int              `json:"id,omitempty"`
	Title           string           `json:"title"`
	SortTitle       string           `json:"sortTitle,omitempty"`
	AlternateTitles []AlternateTitle `json:"alternateTitles,omitempty"`
	TvdbID          int              `json:"tvdbId"`
	TitleSlug       string           `json:"titleSlug"`
	Year            int              `json:"year,omitempty"`
	Images          []Image          `json:"images,omitempty"`
	Seasons         []Season         `json:"seasons,omitempty"`
	Path            string           `json:"path,omitempty"`
}

type AddOptions struct {
	Monitor                  string `json:"monitor"`
	SearchForMissingEpisodes bool   `json:"searchForMissingEpisodes"`
}

// AddSeriesRequest is the body of POST /api/v3/series.
type AddSeriesRequest struct {
	Title            string     `json:"title"`
	TvdbID           int        `json:"tvdbId"`
	TitleSlug        string     `json:"titleSlug"`
	Year             int        `json:"year,omitempty"`
	Images           []Image    `json:"images"`
	Seasons          []Season   `json:"seasons"`
	QualityProfileID int        `json:"qualityProfileId"`
	RootFolderPath   string     `json:"rootFolderPath"`
	Monitored        bool       `json:"monitored"`
	SeasonFolder     bool       `json:"seasonFolder"`
	SeriesType       string     `json:"seriesType"`
	AddOptions       AddOptions `json:"addOptions"`
}
