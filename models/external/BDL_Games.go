package external

type BDL_Team struct {
	ID           int    `json:"id"`
	Abbreviation string `json:"abbreviation"`
	City         string `json:"city"`
	Conference   string `json:"conference"`
	Division     string `json:"division"`
	FullName     string `json:"full_name"`
	Name         string `json:"name"`
}

type BDL_Game struct {
	ID               int      `json:"id"`
	Date             *string  `json:"date"`
	Datetime         *string  `json:"datetime"`
	GameDate         *string  `json:"game_date"`
	Season           int      `json:"season"`
	Status           string   `json:"status"`
	Period           int      `json:"period"`
	Postseason       bool     `json:"postseason"`
	HomeTeamScore    int      `json:"home_team_score"`
	VisitorTeamScore int      `json:"visitor_team_score"`
	HomeTeam         BDL_Team `json:"home_team"`
	VisitorTeam      BDL_Team `json:"visitor_team"`
}

type BDL_Meta struct {
	NextCursor *int `json:"next_cursor"`
	PerPage    int  `json:"per_page"`
}

type BDL_GamesResponse struct {
	Data []BDL_Game `json:"data"`
	Meta BDL_Meta   `json:"meta"`
}

type BDL_TeamsResponse struct {
	Data []BDL_Team `json:"data"`
}

type BDL_ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
