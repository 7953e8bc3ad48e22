package weather

const notAvailable = "N/A"

// CurrentWeather is the normalized rhrread view.
type CurrentWeather struct {
	Temperature    any          `json:"temperature"`
	Rainfall       any          `json:"rainfall"`
	Humidity       any          `json:"humidity"`
	Wind           any          `json:"wind"`
	Pressure       any          `json:"pressure"`
	Visibility     any          `json:"visibility"`
	WarningMessage any          `json:"warningMessage"`
	TCMessage      any          `json:"tcMessage"`
	Icon           any          `json:"icon"`
	UpdateTime     any          `json:"updateTime"`
	RainfallTime   RainfallTime `json:"rainfallTime"`
}

// RainfallTime is the measurement window of the rainfall readings.
type RainfallTime struct {
	StartTime any `json:"startTime"`
	EndTime   any `json:"endTime"`
}

// LocalForecast is the normalized flw view.
type LocalForecast struct {
	GeneralSituation  any `json:"generalSituation"`
	TCInfo            any `json:"tcInfo"`
	FireDangerWarning any `json:"fireDangerWarning"`
	ForecastPeriod    any `json:"forecastPeriod"`
	ForecastDesc      any `json:"forecastDesc"`
	Outlook           any `json:"outlook"`
	UpdateTime        any `json:"updateTime"`
}

// NineDayForecast is the normalized fnd view.
type NineDayForecast struct {
	ForecastDate     any `json:"forecastDate"`
	ForecastPeriod   any `json:"forecastPeriod"`
	GeneralSituation any `json:"generalSituation"`
	WeatherForecast  any `json:"weatherForecast"`
	SeaTemp          any `json:"seaTemp"`
	SoilTemp         any `json:"soilTemp"`
	UpdateTime       any `json:"updateTime"`
}

// Warnings is the normalized view of both warnsum and warningInfo.
type Warnings struct {
	WarningInfo any `json:"warningInfo"`
	UpdateTime  any `json:"updateTime"`
}

// SpecialTips is the normalized swt view.
type SpecialTips struct {
	SWT        any `json:"swt"`
	UpdateTime any `json:"updateTime"`
}

// Projection reshapes a raw payload into its public form. Projections are pure.
type Projection func(Payload) any

var projections = map[DataType]Projection{
	DataTypeCurrentReport:   func(p Payload) any { return ProjectCurrentWeather(p) },
	DataTypeLocalForecast:   func(p Payload) any { return ProjectLocalForecast(p) },
	DataTypeNineDayForecast: func(p Payload) any { return ProjectNineDayForecast(p) },
	DataTypeWarningSummary:  func(p Payload) any { return ProjectWarnings(p) },
	DataTypeWarningInfo:     func(p Payload) any { return ProjectWarnings(p) },
	DataTypeSpecialTips:     func(p Payload) any { return ProjectSpecialTips(p) },
}

// Project applies the projection registered for dataType. Unknown types pass through.
func Project(dataType DataType, p Payload) any {
	if fn, ok := projections[dataType]; ok {
		return fn(p)
	}
	return p
}

func ProjectCurrentWeather(p Payload) CurrentWeather {
	return CurrentWeather{
		Temperature:    or(nested(p, "temperature", "data"), []any{}),
		Rainfall:       or(nested(p, "rainfall", "data"), []any{}),
		Humidity:       or(nested(p, "humidity", "data"), []any{}),
		Wind:           or(nested(p, "wind", "data"), []any{}),
		Pressure:       or(nested(p, "pressure", "data"), []any{}),
		Visibility:     or(nested(p, "visibility", "data"), []any{}),
		WarningMessage: or(p["warningMessage"], []any{}),
		TCMessage:      or(p["tcmessage"], []any{}),
		Icon:           or(p["icon"], []any{}),
		UpdateTime:     or(p["updateTime"], notAvailable),
		RainfallTime: RainfallTime{
			StartTime: or(nested(p, "rainfall", "startTime"), notAvailable),
			EndTime:   or(nested(p, "rainfall", "endTime"), notAvailable),
		},
	}
}

func ProjectLocalForecast(p Payload) LocalForecast {
	return LocalForecast{
		GeneralSituation:  or(p["generalSituation"], ""),
		TCInfo:            or(p["tcInfo"], ""),
		FireDangerWarning: or(p["fireDangerWarning"], ""),
		ForecastPeriod:    or(p["forecastPeriod"], ""),
		ForecastDesc:      or(p["forecastDesc"], ""),
		Outlook:           or(p["outlook"], ""),
		UpdateTime:        or(p["updateTime"], notAvailable),
	}
}

func ProjectNineDayForecast(p Payload) NineDayForecast {
	return NineDayForecast{
		ForecastDate:     or(p["forecastDate"], ""),
		ForecastPeriod:   or(p["forecastPeriod"], ""),
		GeneralSituation: or(p["generalSituation"], ""),
		WeatherForecast:  or(p["weatherForecast"], []any{}),
		SeaTemp:          or(p["seaTemp"], map[string]any{}),
		SoilTemp:         or(p["soilTemp"], map[string]any{}),
		UpdateTime:       or(p["updateTime"], notAvailable),
	}
}

func ProjectWarnings(p Payload) Warnings {
	return Warnings{
		WarningInfo: or(p["warningInfo"], []any{}),
		UpdateTime:  or(p["updateTime"], notAvailable),
	}
}

func ProjectSpecialTips(p Payload) SpecialTips {
	return SpecialTips{
		SWT:        or(p["swt"], []any{}),
		UpdateTime: or(p["updateTime"], notAvailable),
	}
}

// nested walks p through object keys and returns nil when any step is missing.
func nested(p Payload, keys ...string) any {
	var cur any = map[string]any(p)
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[k]
	}
	return cur
}

// or returns def when v is absent or an empty scalar. Empty lists and objects are kept.
func or(v any, def any) any {
	switch t := v.(type) {
	case nil:
		return def
	case string:
		if t == "" {
			return def
		}
	case bool:
		if !t {
			return def
		}
	case float64:
		if t == 0 {
			return def
		}
	}
	return v
}
