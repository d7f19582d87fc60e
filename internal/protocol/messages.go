package protocol

// SubscribeMsg opens (or refreshes) an observer session.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// EveryTicks lets a slow client downsample the feed (0 = every tick).
	EveryTicks int `json:"every_ticks,omitempty"`
}

// StateMsg is the per-tick observer feed: read-only job counts, generation
// statistics and the live job/unit collections.
type StateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	ColonyID        string `json:"colony_id"`

	Pending int      `json:"pending"`
	Active  int      `json:"active"`
	Stats   GenStats `json:"stats"`

	Units []UnitSummary `json:"units,omitempty"`
	Jobs  []JobSummary  `json:"jobs,omitempty"`

	Digest string `json:"digest"`
}

type GenStats struct {
	Total   int `json:"total"`
	Hunt    int `json:"hunt"`
	Fish    int `json:"fish"`
	Harvest int `json:"harvest"`
	Chop    int `json:"chop"`
	Mine    int `json:"mine"`
	Cook    int `json:"cook"`
	Brew    int `json:"brew"`
}

type UnitSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
	Pos   [2]int `json:"pos"`
	HP    int    `json:"hp"`
	Job   int64  `json:"job,omitempty"`
}

type JobSummary struct {
	ID       int64  `json:"id"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	Priority int    `json:"priority"`
	Pos      [2]int `json:"pos"`
	Progress int    `json:"progress"`
	Unit     string `json:"unit,omitempty"`
}

// BootstrapResponse answers the loopback HTTP bootstrap endpoint.
type BootstrapResponse struct {
	ProtocolVersion string `json:"protocol_version"`
	ColonyID        string `json:"colony_id"`
	Tick            uint64 `json:"tick"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Seed            int64  `json:"seed"`
	TickRateHz      int    `json:"tick_rate_hz"`
}
