package auth

// Service wraps token validation for the API middleware.
type Service struct {
	jwt *JWTService
}

// NewService creates a new auth service.
func NewService(jwt *JWTService) *Service {
	return &Service{jwt: jwt}
}

// ValidateToken validates a bearer token and returns the calling service name.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	claims, err := s.jwt.ValidateServiceToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Service, nil
}
