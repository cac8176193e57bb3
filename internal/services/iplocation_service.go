package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/example/storehub/internal/cache"
	"github.com/example/storehub/internal/metrics"
	"github.com/example/storehub/internal/models"
)

const geoLookupTimeout = 3 * time.Second

// IPLocationService resolves visitor IPs to coarse geo data. Results are
// cached in Redis with a short TTL and persisted in ip_locations forever, so
// the external provider is only hit once per new IP.
type IPLocationService struct {
	db      *gorm.DB
	cache   *cache.Redis
	client  *http.Client
	token   string
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *logrus.Entry
}

// NewIPLocationService creates a new IPLocationService. cache may be nil, in
// which case only the database tier is used.
func NewIPLocationService(db *gorm.DB, redis *cache.Redis, token string, ttl time.Duration, m *metrics.Metrics, logger *logrus.Logger) *IPLocationService {
	return &IPLocationService{
		db:      db,
		cache:   redis,
		client:  &http.Client{Timeout: geoLookupTimeout},
		token:   token,
		ttl:     ttl,
		metrics: m,
		logger:  logger.WithField("component", "iplocation"),
	}
}

type ipinfoResponse struct {
	IP       string `json:"ip"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Loc      string `json:"loc"`
	Timezone string `json:"timezone"`
	Bogon    bool   `json:"bogon"`
}

// Lookup resolves an IP. A nil result with nil error means the IP could not
// be resolved (private, bogon, or provider failure); callers treat those
// visitors as location-unknown.
func (s *IPLocationService) Lookup(ctx context.Context, ip string) (*models.IpLocation, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" || isPrivateIP(ip) {
		return nil, nil
	}

	cacheKey := "geo:" + ip
	if s.cache != nil {
		var cached models.IpLocation
		if ok, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
			s.metrics.GeoLookups.WithLabelValues("cache").Inc()
			return &cached, nil
		}
	}

	var stored models.IpLocation
	err := s.db.Where("ip = ?", ip).First(&stored).Error
	if err == nil {
		s.metrics.GeoLookups.WithLabelValues("db").Inc()
		s.cacheResult(ctx, cacheKey, &stored)
		return &stored, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, Internal(err)
	}

	resolved, err := s.fetchFromProvider(ctx, ip)
	if err != nil || resolved == nil {
		s.metrics.GeoLookups.WithLabelValues("failed").Inc()
		if err != nil {
			s.logger.WithField("ip", ip).WithError(err).Warn("geo lookup failed")
		}
		return nil, nil
	}
	s.metrics.GeoLookups.WithLabelValues("provider").Inc()

	if err := s.db.Create(resolved).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		s.logger.WithError(err).Warn("failed to persist geo result")
	}
	s.cacheResult(ctx, cacheKey, resolved)
	return resolved, nil
}

func (s *IPLocationService) cacheResult(ctx context.Context, key string, loc *models.IpLocation) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, loc, s.ttl); err != nil {
		s.logger.WithError(err).Debug("failed to cache geo result")
	}
}

func (s *IPLocationService) fetchFromProvider(ctx context.Context, ip string) (*models.IpLocation, error) {
	url := fmt.Sprintf("https://ipinfo.io/%s/json", ip)
	if s.token != "" {
		url += "?token=" + s.token
	}

	ctx, cancel := context.WithTimeout(ctx, geoLookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipinfo returned status %d", resp.StatusCode)
	}

	var payload ipinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Bogon || payload.Country == "" {
		return nil, nil
	}

	lat, lon := "", ""
	if parts := strings.SplitN(payload.Loc, ",", 2); len(parts) == 2 {
		lat, lon = parts[0], parts[1]
	}

	raw, _ := json.Marshal(payload)
	return &models.IpLocation{
		IP:        ip,
		Country:   payload.Country,
		Region:    payload.Region,
		City:      payload.City,
		Latitude:  lat,
		Longitude: lon,
		Timezone:  payload.Timezone,
		Raw:       datatypes.JSON(raw),
	}, nil
}

func isPrivateIP(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast()
}
