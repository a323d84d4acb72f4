package models

// Internal column names. Adapters map provider-specific field names onto
// these; nothing downstream ever sees a provider name.
const (
	ColDate         = "date"
	ColOpen         = "open"
	ColClose        = "close"
	ColHigh         = "high"
	ColLow          = "low"
	ColVolume       = "volume"
	ColAmount       = "amount"
	ColPctChg       = "pct_chg"
	ColCode         = "code"
	ColName         = "name"
	ColUp           = "up"
	ColDown         = "down"
	ColBalance      = "balance"
	ColChange       = "change"
	ColNetInflow    = "net_inflow"
	ColMainInflow   = "main_net_inflow"
	ColCongestion   = "congestion"
	ColIndustry     = "industry"
	ColMA5          = "ma5"
	ColMA20         = "ma20"
	ColHeat         = "heat"
	ColRisingCount  = "rising_count"
	ColScore        = "score"
	ColTheme        = "theme"
	ColVolumeRatio  = "volume_ratio"
	ColFloatCap     = "float_cap"
)

// Logical data-set names. These key the tables inside a RunContext and the
// cache entries underneath them.
const (
	TblIndexDailySH     = "index_daily_sh"
	TblIndexDailySZ     = "index_daily_sz"
	TblMarketActivity   = "market_activity"
	TblSectorFundFlow   = "sector_fund_flow"
	TblMarketFundFlow   = "market_fund_flow"
	TblMarginSH         = "margin_sh"
	TblMarginSZ         = "margin_sz"
	TblNorthFlow        = "north_flow"
	TblCongestion       = "congestion"
	TblRisingVolumeRank = "rising_volume_rank"
	TblSpotSnapshot     = "spot_snapshot"
	TblIndustryMap      = "industry_map"
	TblSymbolSnapshots  = "symbol_snapshots"
)

// Fixed schemas for the logical data sets. Every adapter in a fallback chain
// for the same logical set produces the same schema.
var (
	SchemaIndexDaily = []Column{
		{ColDate, KindTime}, {ColClose, KindFloat}, {ColAmount, KindFloat},
	}
	SchemaActivity = []Column{
		{ColUp, KindFloat}, {ColDown, KindFloat},
	}
	SchemaSectorFlow = []Column{
		{ColName, KindString}, {ColNetInflow, KindFloat}, {ColPctChg, KindFloat},
	}
	SchemaMarketFlow = []Column{
		{ColMainInflow, KindFloat},
	}
	SchemaMargin = []Column{
		{ColBalance, KindFloat}, {ColChange, KindFloat},
	}
	SchemaNorth = []Column{
		{ColNetInflow, KindFloat},
	}
	SchemaCongestion = []Column{
		{ColDate, KindTime}, {ColCongestion, KindFloat},
	}
	SchemaRisingRank = []Column{
		{ColCode, KindString}, {ColName, KindString},
	}
	SchemaSpot = []Column{
		{ColCode, KindString}, {ColName, KindString}, {ColPctChg, KindFloat},
		{ColVolumeRatio, KindFloat}, {ColFloatCap, KindFloat},
	}
	SchemaBoards = []Column{
		{ColCode, KindString}, {ColName, KindString},
	}
	SchemaIndustryMap = []Column{
		{ColCode, KindString}, {ColIndustry, KindString},
	}
	SchemaSnapshot = []Column{
		{ColCode, KindString}, {ColName, KindString}, {ColClose, KindFloat},
		{ColMA5, KindFloat}, {ColMA20, KindFloat},
	}
)
