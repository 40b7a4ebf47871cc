package models

// StatusDocument is the response body of the mcsrvstat.us v3 API
// Documentation: https://api.mcsrvstat.us/
type StatusDocument struct {
	Online   bool   `json:"online"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Hostname string `json:"hostname,omitempty"`

	Debug *StatusDebug `json:"debug,omitempty"`

	Version  string          `json:"version,omitempty"`
	Protocol *StatusProtocol `json:"protocol,omitempty"`
	Software string          `json:"software,omitempty"`
	Map      *StatusText     `json:"map,omitempty"`
	Gamemode string          `json:"gamemode,omitempty"` // Bedrock only
	ServerID string          `json:"serverid,omitempty"` // Bedrock only

	Players *StatusPlayers `json:"players,omitempty"`
	MOTD    *StatusLines   `json:"motd,omitempty"`
	Icon    string         `json:"icon,omitempty"` // base64 PNG
	Info    *StatusLines   `json:"info,omitempty"`

	EULABlocked bool `json:"eula_blocked,omitempty"`

	Plugins []AddOn `json:"plugins,omitempty"`
	Mods    []AddOn `json:"mods,omitempty"`
}

// StatusDebug carries the API's diagnostic block
type StatusDebug struct {
	Ping          bool  `json:"ping"`
	Query         bool  `json:"query"`
	SRV           bool  `json:"srv"`
	QueryMismatch bool  `json:"querymismatch"`
	IPInSRV       bool  `json:"ipinsrv"`
	CNameInSRV    bool  `json:"cnameinsrv"`
	AnimatedMOTD  bool  `json:"animatedmotd"`
	CacheHit      bool  `json:"cachehit,omitempty"`
	CacheTime     int64 `json:"cachetime"`
	CacheExpire   int64 `json:"cacheexpire,omitempty"`
	APIVersion    int   `json:"apiversion"`
}

// StatusProtocol is the protocol version advertised by the server
type StatusProtocol struct {
	Version int    `json:"version"`
	Name    string `json:"name,omitempty"`
}

// StatusText is a single formatted string in raw, clean and html renditions
type StatusText struct {
	Raw   string `json:"raw"`
	Clean string `json:"clean"`
	HTML  string `json:"html"`
}

// StatusLines is a multi-line formatted string in raw, clean and html renditions
type StatusLines struct {
	Raw   []string `json:"raw"`
	Clean []string `json:"clean"`
	HTML  []string `json:"html"`
}

// StatusPlayers holds player counts and, when the server exposes it, the player list
type StatusPlayers struct {
	Online int            `json:"online"`
	Max    int            `json:"max"`
	List   []StatusPlayer `json:"list,omitempty"`
}

// StatusPlayer is one entry of the online player list
type StatusPlayer struct {
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

// AddOn is an installed plugin or mod
type AddOn struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
