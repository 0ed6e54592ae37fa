package omdb


// envelope carries the fields every provider response shares.
type envelope struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func (e envelope) ok() bool {
	return e.Response == "" || e.Response == "True"
}

type titlePayload struct {
	envelope
	Title        string `json:"Title"`
	Year         string `json:"Year"`
	Rated        string `json:"Rated"`
	Released     string `json:"Released"`
	Runtime      string `json:"Runtime"`
	Genre        string `json:"Genre"`
	Director     string `json:"Director"`
	Actors       string `json:"Actors"`
	Plot         string `json:"Plot"`
	Country      string `json:"Country"`
	Poster       string `json:"Poster"`
	IMDbRating   string `json:"imdbRating"`
	IMDbID       string `json:"imdbID"`
	Type         string `json:"Type"`
	TotalSeasons string `json:"totalSeasons"`
}

type seasonPayload struct {
	envelope
	Title        string           `json:"Title"`
	Season       string           `json:"Season"`
	TotalSeasons string           `json:"totalSeasons"`
	Episodes     []episodePayload `json:"Episodes"`
}

type episodePayload struct {
	Title      string `json:"Title"`
	Released   string `json:"Released"`
	Episode    string `json:"Episode"`
	IMDbRating string `json:"imdbRating"`
	IMDbID     string `json:"imdbID"`
}

