package config

// LLMProviderType defines supported LLM providers
type LLMProviderType string

const (
	// LLMProviderTypeOpenAI is the OpenAI API
	LLMProviderTypeOpenAI LLMProviderType = "openai"
	// LLMProviderTypeAnthropic is the Anthropic Claude API
	LLMProviderTypeAnthropic LLMProviderType = "anthropic"
	// LLMProviderTypeStub is the deterministic offline provider
	LLMProviderTypeStub LLMProviderType = "stub"
)

// IsValid checks if the LLM provider type is valid
func (t LLMProviderType) IsValid() bool {
	return t == LLMProviderTypeOpenAI || t == LLMProviderTypeAnthropic || t == LLMProviderTypeStub
}

// Environment selects error-surface behavior: dev shows provider errors
// verbatim, prod shows a generic message and persists the context.
type Environment string

const (
	// EnvironmentDev is for local development and tests
	EnvironmentDev Environment = "dev"
	// EnvironmentProd is for production deployments
	EnvironmentProd Environment = "prod"
)

// IsValid checks if the environment is valid
func (e Environment) IsValid() bool {
	return e == EnvironmentDev || e == EnvironmentProd
}

// ProductCategory groups catalog products for offer composition.
type ProductCategory string

const (
	// ProductCategoryCatering is food and drink
	ProductCategoryCatering ProductCategory = "catering"
	// ProductCategoryEquipment is technical gear
	ProductCategoryEquipment ProductCategory = "equipment"
	// ProductCategoryService is staffed extras
	ProductCategoryService ProductCategory = "service"
)

// IsValid checks if the product category is valid
func (c ProductCategory) IsValid() bool {
	return c == ProductCategoryCatering || c == ProductCategoryEquipment || c == ProductCategoryService
}
