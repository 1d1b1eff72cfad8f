package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// operationSection returns the raw configuration block for an operation.
func (c *Config) operationSection(operation string) (OperationAIConfig, bool) {
	switch operation {
	case OperationQuestions:
		return c.AI.Questions, true
	case OperationTone:
		return c.AI.Tone, true
	case OperationFeedback:
		return c.AI.Feedback, true
	case OperationExtract:
		return c.AI.Extract, true
	default:
		return OperationAIConfig{}, false
	}
}

// GetOperationConfig returns the AI configuration for an operation with
// fallback to the global configuration. Unknown operations get the global values.
func (c *Config) GetOperationConfig(operation string) OperationAIConfig {
	config, _ := c.operationSection(operation)
	c.applyOperationDefaults(&config)

	if config.Prompts.System == "" {
		config.Prompts.System = c.AI.Prompts.System
	}
	if config.Prompts.User == "" {
		config.Prompts.User = c.AI.Prompts.User
	}
	if config.Prompts.SystemFile == "" {
		config.Prompts.SystemFile = c.AI.Prompts.SystemFile
	}
	if config.Prompts.UserFile == "" {
		config.Prompts.UserFile = c.AI.Prompts.UserFile
	}

	return config
}

func (c *Config) GetQuestionsConfig() OperationAIConfig {
	return c.GetOperationConfig(OperationQuestions)
}

func (c *Config) GetToneConfig() OperationAIConfig {
	return c.GetOperationConfig(OperationTone)
}

func (c *Config) GetFeedbackConfig() OperationAIConfig {
	return c.GetOperationConfig(OperationFeedback)
}

func (c *Config) GetExtractConfig() OperationAIConfig {
	return c.GetOperationConfig(OperationExtract)
}

// applyAIKey sets the key globally and on every operation that has none of its own.
func (c *Config) applyAIKey(key string) {
	c.AI.APIKey = key
	for _, section := range []*OperationAIConfig{&c.AI.Questions, &c.AI.Tone, &c.AI.Feedback, &c.AI.Extract} {
		if section.APIKey == "" {
			section.APIKey = key
		}
	}
}
