package apimodel

type Marquee struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

type DisplayStatus struct {
	On   bool   `json:"on"`
	Mode string `json:"mode"`
}
