package crm

// Contact segue o payload de GET /contacts/{id}.
type Contact struct {
	ID                string `json:"id"`
	FullNameLowerCase string `json:"fullNameLowerCase"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
}

// DisplayName prefere o nome normalizado do CRM.
func (c Contact) DisplayName() string {
	if c.FullNameLowerCase != "" {
		return c.FullNameLowerCase
	}
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	}
	return c.LastName
}

type contactResponse struct {
	Contact *Contact `json:"contact"`
}

// Event é um compromisso do calendário do contato.
type Event struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	StartTime         string `json:"startTime"`
	EndTime           string `json:"endTime"`
	AppointmentStatus string `json:"appointmentStatus"`
}

// Events ausente (nil) distingue payload inválido de lista vazia.
type eventsResponse struct {
	Events *[]Event `json:"events"`
}
