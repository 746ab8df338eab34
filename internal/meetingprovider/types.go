package meetingprovider

// tipos de reunião do provedor
const (
	TypeInstant   = 1
	TypeScheduled = 2
	TypeRecurring = 8
)

type Recurrence struct {
	Type           int    `json:"type,omitempty"`
	RepeatInterval int    `json:"repeat_interval,omitempty"`
	WeeklyDays     string `json:"weekly_days,omitempty"`
	MonthlyDay     int    `json:"monthly_day,omitempty"`
	MonthlyWeek    int    `json:"monthly_week,omitempty"`
	MonthlyWeekDay int    `json:"monthly_week_day,omitempty"`
	EndTimes       int    `json:"end_times,omitempty"`
	EndDateTime    string `json:"end_date_time,omitempty"`
}

type Settings struct {
	ApprovalType    int  `json:"approval_type"`
	RegistrantsMail bool `json:"registrants_confirmation_email"`
	JoinBeforeHost  bool `json:"join_before_host"`
}

type CreateMeetingRequest struct {
	Topic      string      `json:"topic"`
	Type       int         `json:"type"`
	StartTime  string      `json:"start_time"`
	Duration   int         `json:"duration"`
	Timezone   string      `json:"timezone"`
	Password   string      `json:"password"`
	Agenda     string      `json:"agenda,omitempty"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`
	Settings   *Settings   `json:"settings,omitempty"`
}

type Occurrence struct {
	OccurrenceID string `json:"occurrence_id"`
	StartTime    string `json:"start_time"`
	Duration     int    `json:"duration,omitempty"`
	Status       string `json:"status,omitempty"`
}

type Meeting struct {
	ID                int64        `json:"id"`
	Type              int          `json:"type"`
	Topic             string       `json:"topic"`
	Timezone          string       `json:"timezone"`
	StartTime         string       `json:"start_time"`
	Duration          int          `json:"duration"`
	Password          string       `json:"password"`
	EncryptedPassword string       `json:"encrypted_password"`
	StartURL          string       `json:"start_url"`
	JoinURL           string       `json:"join_url"`
	Recurrence        *Recurrence  `json:"recurrence,omitempty"`
	Occurrences       []Occurrence `json:"occurrences,omitempty"`
}

func (m *Meeting) IsRecurring() bool {
	return m.Type == TypeRecurring && len(m.Occurrences) > 0
}

type RegistrantRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RegistrantResponse struct {
	ID           int64  `json:"id"`
	RegistrantID string `json:"registrant_id"`
	JoinURL      string `json:"join_url"`
}
