package model

// PropertyRecord represents one row of the authoritative property table.
// All fields except the identifier are nullable in the source data.
type PropertyRecord struct {
	UniquePropertyID string  `json:"unique_property_id" db:"unique_property_id"`
	ProjectName      *string `json:"project_name,omitempty" db:"project_name"`
	Location         *string `json:"location,omitempty" db:"location"`
	Price            *int64  `json:"price,omitempty" db:"price"`
	Area             *string `json:"area,omitempty" db:"area"`
	Pincode          *string `json:"pincode,omitempty" db:"pincode"`
	PropertyType     *string `json:"property_type,omitempty" db:"property_type"`
	Landmark         *string `json:"landmark,omitempty" db:"landmark"`
	Amenities        *string `json:"amenities,omitempty" db:"amenities"`
}

// PropertyPage is a paginated slice of the property table.
type PropertyPage struct {
	Total      int              `json:"total"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
	Count      int              `json:"count"`
	Properties []PropertyRecord `json:"properties"`
}

// PropertyTypeCount is the per-type slice of the statistics summary.
type PropertyTypeCount struct {
	Type  *string `json:"type" db:"property_type"`
	Count int     `json:"count" db:"count"`
}

// PropertyStats summarizes the property table. Price aggregates ignore
// rows with a null price.
type PropertyStats struct {
	TotalProperties int                 `json:"total_properties"`
	AveragePrice    *float64            `json:"average_price"`
	MinPrice        *int64              `json:"min_price"`
	MaxPrice        *int64              `json:"max_price"`
	PropertyTypes   []PropertyTypeCount `json:"property_types"`
}

// HealthStatus is the readiness report exposed to upstream liveness checks.
type HealthStatus struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	DatabaseLoaded bool   `json:"database_loaded"`
}
