package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intelink/console/internal/accesscontrol"
	"github.com/intelink/console/internal/models"
)

var (
	ErrPresetNotFound     = errors.New("access preset not found")
	ErrPresetNameRequired = errors.New("name is required")
	ErrInvalidPresetMode  = errors.New("invalid access preset mode")
	ErrInvalidPresetRule  = errors.New("invalid access preset rule")
	ErrPresetEmpty        = errors.New("access preset restricts nothing")
	ErrTemplateNotFound   = errors.New("access preset template not found")
)

// PresetTemplate is a built-in starting point for a preset.
type PresetTemplate struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Mode        string   `json:"mode"`
	Countries   []string `json:"countries,omitempty"`
	IPRanges    []string `json:"ip_ranges,omitempty"`
	Category    string   `json:"category"`
}

var presetTemplates = []PresetTemplate{
	{
		ID:          "local-network",
		Name:        "Local Network Only",
		Description: "Allow only private network addresses (office and VPN links)",
		Mode:        "ALLOW",
		IPRanges:    []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
		Category:    "network",
	},
	{
		ID:          "us-only",
		Name:        "US Only",
		Description: "Redirect visitors from the United States only",
		Mode:        "ALLOW",
		Countries:   []string{"US"},
		Category:    "geo",
	},
	{
		ID:          "eu-only",
		Name:        "EU Only",
		Description: "Redirect visitors from European Union member states only",
		Mode:        "ALLOW",
		Countries:   []string{"AT", "BE", "BG", "HR", "CY", "CZ", "DK", "EE", "FI", "FR", "DE", "GR", "HU", "IE", "IT", "LV", "LT", "LU", "MT", "NL", "PL", "PT", "RO", "SK", "SI", "ES", "SE"},
		Category:    "geo",
	},
	{
		ID:          "dach",
		Name:        "DACH Region",
		Description: "Redirect visitors from Germany, Austria and Switzerland only",
		Mode:        "ALLOW",
		Countries:   []string{"DE", "AT", "CH"},
		Category:    "geo",
	},
	{
		ID:          "sanctioned-countries",
		Name:        "Block Sanctioned Countries",
		Description: "Block visitors from comprehensively sanctioned countries",
		Mode:        "BLOCK",
		Countries:   []string{"CU", "IR", "KP", "SY"},
		Category:    "compliance",
	},
}

type AccessPresetService struct {
	db *gorm.DB
}

func NewAccessPresetService(db *gorm.DB) *AccessPresetService {
	return &AccessPresetService{db: db}
}

// Create validates, normalizes and stores a new preset.
func (s *AccessPresetService) Create(p *models.AccessPreset) error {
	if err := s.normalize(p); err != nil {
		return err
	}
	p.UUID = uuid.New().String()
	return s.db.Create(p).Error
}

func (s *AccessPresetService) GetByID(id uint) (*models.AccessPreset, error) {
	var p models.AccessPreset
	if err := s.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPresetNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *AccessPresetService) GetByUUID(id string) (*models.AccessPreset, error) {
	var p models.AccessPreset
	if err := s.db.Where("uuid = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPresetNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns every preset, most recently changed first.
func (s *AccessPresetService) List() ([]models.AccessPreset, error) {
	var presets []models.AccessPreset
	if err := s.db.Order("updated_at desc").Find(&presets).Error; err != nil {
		return nil, err
	}
	return presets, nil
}

func (s *AccessPresetService) Update(id uint, updates *models.AccessPreset) (*models.AccessPreset, error) {
	p, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	p.Name = updates.Name
	p.Description = updates.Description
	p.Mode = updates.Mode
	p.Countries = updates.Countries
	p.IPRules = updates.IPRules
	p.Category = updates.Category

	if err := s.normalize(p); err != nil {
		return nil, err
	}
	if err := s.db.Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (s *AccessPresetService) Delete(id uint) error {
	result := s.db.Delete(&models.AccessPreset{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPresetNotFound
	}
	return nil
}

// Templates returns the built-in presets.
func (s *AccessPresetService) Templates() []PresetTemplate {
	out := make([]PresetTemplate, len(presetTemplates))
	copy(out, presetTemplates)
	return out
}

// CreateFromTemplate stores a preset seeded from a built-in template.
// An empty name keeps the template's name.
func (s *AccessPresetService) CreateFromTemplate(templateID, name string) (*models.AccessPreset, error) {
	for _, t := range presetTemplates {
		if t.ID != templateID {
			continue
		}
		p, err := PresetFromData(firstNonEmpty(name, t.Name), accesscontrol.Data{
			Mode:      accesscontrol.Mode(t.Mode),
			Countries: t.Countries,
			IPRanges:  t.IPRanges,
		})
		if err != nil {
			return nil, err
		}
		p.Description = t.Description
		p.Category = t.Category
		if err := s.Create(p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
}

// Evaluate tests a visitor against a stored preset.
func (s *AccessPresetService) Evaluate(id uint, visitorIP, visitorCountry string) (accesscontrol.Decision, error) {
	p, err := s.GetByID(id)
	if err != nil {
		return accesscontrol.Decision{}, err
	}
	d, err := PresetData(p)
	if err != nil {
		return accesscontrol.Decision{}, err
	}
	return accesscontrol.Evaluate(d, visitorIP, visitorCountry)
}

// PresetData converts a stored preset into an access-control configuration.
func PresetData(p *models.AccessPreset) (accesscontrol.Data, error) {
	mode, err := accesscontrol.ParseMode(p.Mode)
	if err != nil {
		return accesscontrol.Data{}, fmt.Errorf("%w: %s", ErrInvalidPresetMode, p.Mode)
	}
	d := accesscontrol.Data{Mode: mode, Countries: []string{}, IPRanges: []string{}}
	for _, code := range strings.Split(p.Countries, ",") {
		if code = strings.TrimSpace(code); code != "" {
			d.Countries = append(d.Countries, code)
		}
	}
	if strings.TrimSpace(p.IPRules) != "" {
		var rules []models.IPRangeRule
		if err := json.Unmarshal([]byte(p.IPRules), &rules); err != nil {
			return accesscontrol.Data{}, fmt.Errorf("invalid IP rules JSON: %w", err)
		}
		for _, r := range rules {
			d.IPRanges = append(d.IPRanges, r.CIDR)
		}
	}
	return d, nil
}

// PresetFromData builds an unsaved preset from a configuration.
func PresetFromData(name string, d accesscontrol.Data) (*models.AccessPreset, error) {
	rules := make([]models.IPRangeRule, 0, len(d.IPRanges))
	for _, r := range d.IPRanges {
		rules = append(rules, models.IPRangeRule{CIDR: r})
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return nil, err
	}
	return &models.AccessPreset{
		Name:      name,
		Mode:      string(d.Mode),
		Countries: strings.Join(d.Countries, ","),
		IPRules:   string(raw),
	}, nil
}

// normalize validates p and rewrites its lists in canonical form.
func (s *AccessPresetService) normalize(p *models.AccessPreset) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrPresetNameRequired
	}
	d, err := PresetData(p)
	if err != nil {
		return err
	}
	if d.Mode == accesscontrol.ModeNone {
		return fmt.Errorf("%w: %s", ErrInvalidPresetMode, p.Mode)
	}

	state, problems := accesscontrol.FromData(d)
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPresetRule, strings.Join(problems, "; "))
	}
	clean := state.Snapshot()
	if !clean.HasRestrictions() {
		return ErrPresetEmpty
	}

	descriptions := map[string]string{}
	var rules []models.IPRangeRule
	if strings.TrimSpace(p.IPRules) != "" {
		_ = json.Unmarshal([]byte(p.IPRules), &rules)
		for _, r := range rules {
			descriptions[strings.TrimSpace(r.CIDR)] = r.Description
		}
	}
	rules = make([]models.IPRangeRule, 0, len(clean.IPRanges))
	for _, cidr := range clean.IPRanges {
		rules = append(rules, models.IPRangeRule{CIDR: cidr, Description: descriptions[cidr]})
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return err
	}

	p.Mode = string(clean.Mode)
	p.Countries = strings.Join(clean.Countries, ",")
	p.IPRules = string(raw)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
