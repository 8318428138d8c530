package gherkin

// Canned feature templates keyed by the category the classifier picks.
var templates = map[string]string{
	"data_validation": `Feature: Data Quality Validation
  As a data analyst
  I want to validate client data quality
  So that I can ensure data integrity

  Scenario: Validate client revenue data
    Given I have client data in the database
    When I check the revenue column
    Then all revenue values should be non-negative
    And revenue values should be less than 1000000

  Scenario: Validate client record count
    Given I have client data in the database
    When I count the total records
    Then the count should be greater than 0`,

	"api_testing": `Feature: API Endpoint Validation
  As a QA engineer
  I want to validate API responses
  So that I can ensure the API works correctly

  Scenario: Get client list from API
    Given the mock API is running
    When I request the client list
    Then the response status should be 200
    And the response should contain client data

  Scenario: Get single client details
    Given the mock API is running
    When I request details for a specific client
    Then the response should include revenue information`,

	"ui_testing": `Feature: Dashboard UI Validation
  As a business user
  I want to verify the dashboard displays correctly
  So that I can trust the reported figures

  Scenario: Dashboard shows client revenue
    Given the dashboard page is loaded
    When I look at the clients grid
    Then each client card should show a revenue figure
    And the revenue figures should be positive`,
}
